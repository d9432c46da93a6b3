package shared

const (
	ProjectID = "pacebot-project" // Can be overridden by env var in main if needed

	TopicActivityUpload    = "topic-activity-upload" // recipe engine entry point
	TopicActivityProcessed = "topic-activity-processed"
	TopicProcessingFailed  = "topic-processing-failed"

	CollectionUsers       = "users"
	CollectionRecipeStats = "recipe-stats"
	CollectionGearWear    = "gearwear"
	CollectionFailed      = "activities-failed"
	SubcollectionRecipes  = "recipes"
)
