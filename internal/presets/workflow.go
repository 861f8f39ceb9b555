package presets

import "github.com/naoray/hubber/internal/labels"

const (
	WorkflowName = "workflow"
	MinimalName  = "minimal"
)

// Workflow labels used to track an issue from backlog to review.
const (
	LabelTasks  = "PM: Tasks"
	LabelDoing  = "PM: Doing"
	LabelReview = "PM: Ready for Review"
)

// NewWorkflow is the default preset: impact, project-management, priority
// and type labels.
func NewWorkflow() Preset {
	return &basePreset{
		name:        WorkflowName,
		description: "impact, workflow, priority and type labels",
		labels: []labels.Label{
			{Name: "Impact: Major", Description: "When you make incompatible API changes", Color: "69D100"},
			{Name: "Impact: Minor", Description: "When you add functionality in a backwards-compatible manner", Color: "5CB85C"},
			{Name: "Impact: Patch", Description: "When you make backwards-compatible bug fixes.", Color: "A8D695"},
			{Name: "PM: Design", Description: "The feature is that are currently in design.", Color: "386DBD"},
			{Name: "PM: Design Needed", Description: "", Color: "5843AD"},
			{Name: LabelDoing, Description: "Currently under development", Color: "009DDD"},
			{Name: "PM: Ready for Release", Description: "All merge requests which have been reviewed and are ready for release.", Color: "5CB85C"},
			{Name: LabelReview, Description: "Ready for review", Color: "05D3F8"},
			{Name: LabelTasks, Description: "Tickets ready for development. Devs pull from this queue of tasks", Color: "428BCA"},
			{Name: "Priority: Critical", Description: "Everyone needs to jump in and try to get the work done", Color: "FF0000"},
			{Name: "Priority: High", Description: "It requires attention, the necessary work needs to be done as quickly as possible.", Color: "C70000"},
			{Name: "Priority: Low", Description: "Need to be done someday in the quarter", Color: "4F0000"},
			{Name: "Priority: medium", Description: "It need to be done, in the current development cycle (sprint)", Color: "8C0000"},
			{Name: "Type: Bug", Description: "Changes in the code to fix something that already exist, but isn't working properly", Color: "FF0000"},
			{Name: "Type: Enhancement", Description: "Changes in the code that improves that, e.g.: refactoring a function, fixing typos", Color: "F8CA00"},
			{Name: "Type: Epic", Description: "An issue that groups other issues", Color: "0033CC"},
			{Name: "Type: Feature", Description: "Changes in the code that adds new functionalities, e.g.: generate reports", Color: "5CB85C"},
			{Name: "Type: R&D", Description: "Research and Development", Color: "34495E"},
		},
	}
}

// NewMinimal is a small general purpose preset.
func NewMinimal() Preset {
	return &basePreset{
		name:        MinimalName,
		description: "bug, feature and docs",
		labels: []labels.Label{
			{Name: "bug", Description: "Something isn't working", Color: "d73a4a"},
			{Name: "feature", Description: "New feature or request", Color: "a2eeef"},
			{Name: "docs", Description: "Improvements or additions to documentation", Color: "0075ca"},
		},
	}
}
