package config

import "strings"

// Issue and comment templates. Placeholders are expanded by Render.
const (
	TaskSummaryTemplate     = "Update {asset_name}"
	TaskDescriptionTemplate = "Please update the asset '{asset_name}'.\n\n" +
		"Required steps:\n" +
		"1. Update the app\n" +
		"2. Update the 'Update' property in Asset\n" +
		"3. Move task to -> DONE"

	CommentReminder      = "Reminder: The asset update is overdue (Update date: {update_date}). Please update the asset."
	CommentRequestUpdate = "The Update date is outdated. Please update the asset accordingly."
	CommentFutureStuck   = "Task is not Done and the update date ({update_date}) is in the future. " +
		"Task is stuck and needs review."
)

// Render expands {name} placeholders in a template.
func Render(template string, vars map[string]string) string {
	out := template
	for name, value := range vars {
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	return out
}
