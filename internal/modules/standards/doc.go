// Package standards implements the second pipeline stage: for each recorded
// lesson plan link, run the extraction agent that reads the document and
// files its educational standards into the tracker spreadsheet, then persist
// the per-lesson results and a human-readable report.
package standards
