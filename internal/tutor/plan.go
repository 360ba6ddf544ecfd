package tutor

import (
	"fmt"
	"strings"
)

// StudyPlanSystem frames the model as an exam-preparation planner.
func StudyPlanSystem(subjects []string, days int, goals []string, level string) string {
	var sb strings.Builder
	sb.WriteString("You are an expert educational planner for IIT-JEE preparation.\n")
	fmt.Fprintf(&sb, "Create a detailed, personalized study plan.\n- Subjects: %s\n- Duration: %d days\n",
		strings.Join(subjects, ", "), days)
	if len(goals) > 0 {
		fmt.Fprintf(&sb, "- Goals: %s\n", strings.Join(goals, ", "))
	}
	if level != "" {
		fmt.Fprintf(&sb, "- Current level: %s\n", level)
	}
	sb.WriteString("The plan must include daily tasks with time allocations, weekly milestones, " +
		"practice and revision schedules, and a difficulty progression. " +
		"Format the response as Markdown with one section per day.")
	return sb.String()
}

// StudyPlanPrompt is the user turn for a study-plan request.
func StudyPlanPrompt(subjects []string, days int) string {
	return fmt.Sprintf("Generate a complete study plan covering %s over %d days.",
		strings.Join(subjects, ", "), days)
}
