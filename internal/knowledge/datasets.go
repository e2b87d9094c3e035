package knowledge

// Dataset identifiers for the three knowledge corpora. Fixed at build time;
// each maps one-to-one onto an MCP tool.
const (
	// UXDatasetID selects the internal UX guidance corpus.
	UXDatasetID = "cab02597-6315-456c-92d3-19a65e3e7efd"
	// LeanDatasetID selects the Lean / continuous improvement corpus.
	LeanDatasetID = "67659dbe-4387-4122-8eb9-1d2005bea6a2"
	// AutomationDatasetID selects the automation process documentation corpus.
	AutomationDatasetID = "b68de37f-a9f7-41fc-948f-eb89ca145770"
)
