// Package strategy maps a resolved intent to the ordered set of
// retrieval methods that should run for it and the fusion weight each
// method contributes.
package strategy

import "github.com/nilreef/ctxengine/internal/model"

// Plan is one intent's retrieval strategy: methods in priority order,
// and the fusion weight for each.
type Plan struct {
	Methods []model.Method
	Weights map[model.Method]float64
}

// table is the normative intent-to-strategy mapping.
var table = map[model.Intent]Plan{
	model.IntentExplain: {
		Methods: []model.Method{model.MethodSemantic, model.MethodLexical, model.MethodDependency},
		Weights: map[model.Method]float64{model.MethodSemantic: 0.6, model.MethodLexical: 0.3, model.MethodDependency: 0.1},
	},
	model.IntentBugFix: {
		Methods: []model.Method{model.MethodRecentEdits, model.MethodSemantic, model.MethodDependency, model.MethodLexical},
		Weights: map[model.Method]float64{model.MethodRecentEdits: 0.4, model.MethodSemantic: 0.3, model.MethodDependency: 0.2, model.MethodLexical: 0.1},
	},
	model.IntentRefactor: {
		Methods: []model.Method{model.MethodDependency, model.MethodSemantic, model.MethodLexical},
		Weights: map[model.Method]float64{model.MethodDependency: 0.5, model.MethodSemantic: 0.4, model.MethodLexical: 0.1},
	},
	model.IntentGenerate: {
		Methods: []model.Method{model.MethodSemantic, model.MethodLexical, model.MethodDependency},
		Weights: map[model.Method]float64{model.MethodSemantic: 0.6, model.MethodLexical: 0.3, model.MethodDependency: 0.1},
	},
	model.IntentTest: {
		Methods: []model.Method{model.MethodDependency, model.MethodSemantic, model.MethodLexical},
		Weights: map[model.Method]float64{model.MethodDependency: 0.4, model.MethodSemantic: 0.4, model.MethodLexical: 0.2},
	},
}

// Select returns intent's retrieval plan, falling back to the explain
// plan for any intent not in the normative table (defensive only; the
// classifier never emits an intent outside model.Intent's closed set).
func Select(intent model.Intent) Plan {
	if plan, ok := table[intent]; ok {
		return plan
	}
	return table[model.DefaultIntent]
}
