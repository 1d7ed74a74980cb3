package agent

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are an educational standards specialist: an expert in
educational curriculum with deep knowledge of state standards, Common Core
standards, and computational thinking concepts. You extract and categorize
educational standards from lesson plans and record them in a tracker
spreadsheet using the tools provided.`

// taskPrompt renders the per-lesson instructions. The wording mirrors the
// worksheet the auditors use by hand: read, identify, list, file.
func taskPrompt(task Task, sheet Sheet) string {
	var b strings.Builder
	b.WriteString("Process one lesson plan document and update the tracker spreadsheet.\n\n")
	fmt.Fprintf(&b, "1. Use the %s tool to read the content of %s.\n", toolReadLessonPlan, task.DocumentLink)
	b.WriteString("2. Identify all standards mentioned in the document, including:\n")
	b.WriteString("   - State standards\n")
	b.WriteString("   - Common Core standards (e.g., \"CCSS.ELA-LITERACY.W.5.1\")\n")
	b.WriteString("   - Learning standards\n")
	b.WriteString("3. Produce a comma-separated list of all standards found, with no extra commentary.\n")
	fmt.Fprintf(&b, "4. Use the %s tool with lesson_id %q and the comma-separated list as standards.\n\n", toolWriteStandards, task.LessonID)
	fmt.Fprintf(&b, "If no standards are found, write %q instead.\n", NoStandardsFound)
	b.WriteString("Finish by confirming in one short sentence what was written and for which lesson id.\n")
	return b.String()
}
