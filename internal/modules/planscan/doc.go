// Package planscan implements the first pipeline stage: walk the lesson
// tracker roster, resolve each ready row's Drive folder, pick the folder's
// lesson plan document, and persist the id-to-link mapping as the plan-links
// artifact.
package planscan
