package dflow

// ExecutionContext carries the local, in-progress ReachingDefinitions
// for a single basic-block pass: it starts from the merged
// out-definitions of the block's predecessors, accumulates the effects
// of executing the block's statements, and is compared against the
// block's previously stored out-definitions to detect whether the
// fixpoint driver needs another pass.
type ExecutionContext struct {
	analyzer    *Analyzer
	definitions ReachingDefinitions
}

func newExecutionContext(a *Analyzer) *ExecutionContext {
	return &ExecutionContext{analyzer: a}
}

// Definitions returns the context's working ReachingDefinitions.
func (c *ExecutionContext) Definitions() *ReachingDefinitions { return &c.definitions }

// Dataflow returns the store the owning Analyzer is populating.
func (c *ExecutionContext) Dataflow() *Dataflow { return c.analyzer.dataflow }
