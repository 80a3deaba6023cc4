// Package governance gates outbound operations (searches, page fetches)
// against a deny policy, so the pipeline never reaches targets the operator
// ruled out.
package governance

import (
	"context"
	"fmt"
	"regexp"
)

// Effect defines the result of a policy evaluation.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Request contains the context of an outbound operation to be evaluated.
type Request struct {
	Operation string // "search" or "scrape"
	Target    string // the query or URL
}

// Result contains the outcome of a policy evaluation.
type Result struct {
	Effect Effect
	Reason string
}

// PolicyEngine evaluates outbound operations against a set of rules.
type PolicyEngine interface {
	Evaluate(ctx context.Context, req Request) (Result, error)
}

// DefaultPolicyEngine is a basic implementation of PolicyEngine.
type DefaultPolicyEngine struct {
	DeniedOperations map[string]bool
	DeniedTargets    []*regexp.Regexp
}

func NewDefaultPolicyEngine() *DefaultPolicyEngine {
	return &DefaultPolicyEngine{
		DeniedOperations: make(map[string]bool),
		DeniedTargets:    make([]*regexp.Regexp, 0),
	}
}

func (e *DefaultPolicyEngine) DenyOperation(name string) {
	e.DeniedOperations[name] = true
}

func (e *DefaultPolicyEngine) DenyTarget(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	e.DeniedTargets = append(e.DeniedTargets, re)
	return nil
}

func (e *DefaultPolicyEngine) Evaluate(ctx context.Context, req Request) (Result, error) {
	if e.DeniedOperations[req.Operation] {
		return Result{
			Effect: EffectDeny,
			Reason: fmt.Sprintf("Operation '%s' is restricted by policy", req.Operation),
		}, nil
	}

	for _, re := range e.DeniedTargets {
		if re.MatchString(req.Target) {
			return Result{
				Effect: EffectDeny,
				Reason: fmt.Sprintf("Target matches restricted pattern: %s", re.String()),
			}, nil
		}
	}

	return Result{
		Effect: EffectAllow,
		Reason: "Approved by default policy",
	}, nil
}
