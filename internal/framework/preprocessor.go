package framework

import (
	"context"
	"fmt"
)

// PreProcessor ordered chain of processing steps
type PreProcessor struct {
	processFuncs []ProcessorFunc
}

// NewPreProcessor creates a chain
func NewPreProcessor(processFuncs []ProcessorFunc) *PreProcessor {
	return &PreProcessor{
		processFuncs: processFuncs,
	}
}

// Run executes the chain; the first error stops it
func (p *PreProcessor) Run(ctx context.Context) error {
	for i, processFunc := range p.processFuncs {
		if err := processFunc(ctx); err != nil {
			return fmt.Errorf("processor[%d] failed: %w", i, err)
		}
	}
	return nil
}
