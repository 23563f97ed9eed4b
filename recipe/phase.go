package recipe

import (
	"slices"
	"strings"
)

const (
	PhasePrecook = "Precook"
	PhaseCook    = "Cook"
)

// Keyword sets used to classify steps and tools. Matching is by lowercase
// substring.
var (
	PrecookKeywords = []string{
		"prep", "chop", "dice", "mince", "slice", "wash", "rinse", "marinate", "soak",
		"measure", "mix", "combine", "whisk", "beat", "cut", "peel", "trim", "season", "prepare",
	}
	CookKeywords = []string{
		"cook", "bake", "fry", "sauté", "saute", "simmer", "boil", "roast", "grill", "steam",
		"broil", "heat", "warm", "brown", "sear", "stir", "flip", "turn",
	}
	PrepToolKeywords = []string{
		"cutting board", "knife", "measuring cup", "measuring spoon", "mixing bowl",
		"whisk", "spatula", "peeler", "grater",
	}
	CookToolKeywords = []string{
		"pan", "pot", "skillet", "oven", "stove", "grill", "fryer", "steamer", "broiler",
		"saucepan", "stockpot", "baking sheet",
	}
	// DefaultCookingTools are looked for in untagged step text alongside the
	// recipe's own tool list.
	DefaultCookingTools = []string{
		"cutting board", "knife", "measuring cups", "measuring spoons", "mixing bowl",
		"whisk", "spatula", "peeler", "grater", "colander", "blender",
		"skillet", "saucepan", "stockpot", "frying pan", "baking sheet", "baking dish",
		"oven", "stove", "grill", "steamer", "wok",
	}
	// SeasoningKeywords mark an ingredient as prep work in fallback mode.
	SeasoningKeywords = []string{
		"salt", "pepper", "spice", "herb", "basil", "oregano", "thyme", "rosemary",
		"parsley", "cilantro", "cumin", "paprika", "cinnamon", "nutmeg",
	}
)

// Phase is a derived grouping of ingredients and tools. Tools are sorted.
type Phase struct {
	Name        string       `json:"name"`
	Ingredients []Ingredient `json:"ingredients"`
	Tools       []string     `json:"tools"`
	Description string       `json:"description"`
}

// Phases is always a precook phase followed by a cook phase.
type Phases struct {
	Precook Phase `json:"precook"`
	Cook    Phase `json:"cook"`
}

// All returns the two phases in display order.
func (p Phases) All() []Phase {
	return []Phase{p.Precook, p.Cook}
}

// StepKind is the keyword classification of one instruction.
type StepKind int

const (
	StepNeither StepKind = iota
	StepPrecook
	StepCook
	StepBoth
)

func (k StepKind) String() string {
	switch k {
	case StepPrecook:
		return "precook"
	case StepCook:
		return "cook"
	case StepBoth:
		return "both"
	default:
		return "neither"
	}
}

// ClassifyStep matches instruction text against both keyword sets.
func ClassifyStep(text string) StepKind {
	lower := strings.ToLower(text)
	pre := containsAny(lower, PrecookKeywords)
	cook := containsAny(lower, CookKeywords)
	switch {
	case pre && cook:
		return StepBoth
	case pre:
		return StepPrecook
	case cook:
		return StepCook
	default:
		return StepNeither
	}
}

// ClassifyTool returns PhasePrecook or PhaseCook for a tool name. Tools that
// match neither keyword list are prep tools.
func ClassifyTool(tool string) string {
	lower := strings.ToLower(tool)
	if containsAny(lower, PrepToolKeywords) {
		return PhasePrecook
	}
	if containsAny(lower, CookToolKeywords) {
		return PhaseCook
	}
	return PhasePrecook
}

// OrganizeIntoPhases splits a recipe's ingredients and tools into a precook
// and a cook phase. Every ingredient lands in exactly one phase.
//
// Steps that match both keyword sets ("combine and sauté") count as precook.
// Steps that match neither assign nothing; their ingredients fall through to
// the precook bucket and their equipment is classified by tool name.
//
// A recipe whose steps carry no ingredient or equipment tags at all goes
// through FallbackPhases instead.
func OrganizeIntoPhases(r Recipe) Phases {
	if !hasStepTags(r) {
		return FallbackPhases(r)
	}

	a := newAssigner(r)
	for _, step := range r.SortedInstructions() {
		kind := ClassifyStep(step.Instruction)
		phase := phaseForStep(kind)

		if len(step.Ingredients) > 0 || len(step.Equipment) > 0 {
			for _, name := range step.Ingredients {
				if idx := a.resolve(name); idx >= 0 && phase != "" {
					a.assign(idx, phase)
				}
			}
			for _, tool := range step.Equipment {
				a.addTool(tool, phase)
			}
			continue
		}

		lower := strings.ToLower(step.Instruction)
		if phase != "" {
			for i, ing := range r.Ingredients {
				if name := strings.ToLower(strings.TrimSpace(ing.Name)); name != "" && strings.Contains(lower, name) {
					a.assign(i, phase)
				}
			}
		}
		for _, tool := range a.knownTools {
			if strings.Contains(lower, strings.ToLower(tool)) {
				a.addTool(tool, phase)
			}
		}
	}

	for i := range r.Ingredients {
		a.assign(i, PhasePrecook)
	}
	for _, tool := range append(slices.Clone(r.CookingTools), a.pending...) {
		if !a.hasTool(tool) {
			a.addTool(tool, ClassifyTool(tool))
		}
	}
	return a.phases()
}

// FallbackPhases classifies without step tags: seasonings and ingredients
// with a preparation note are precook, the rest are cook, and tools go by
// name. If either ingredient list ends up empty the ingredients are split in
// half by position instead, first half precook.
func FallbackPhases(r Recipe) Phases {
	a := newAssigner(r)
	for i, ing := range r.Ingredients {
		if isPrepIngredient(ing) {
			a.assign(i, PhasePrecook)
		} else {
			a.assign(i, PhaseCook)
		}
	}

	if !a.hasBoth() {
		mid := (len(r.Ingredients) + 1) / 2
		for i := range r.Ingredients {
			if i < mid {
				a.phaseOf[i] = PhasePrecook
			} else {
				a.phaseOf[i] = PhaseCook
			}
		}
	}

	for _, tool := range r.CookingTools {
		a.addTool(tool, ClassifyTool(tool))
	}
	return a.phases()
}

func phaseForStep(kind StepKind) string {
	switch kind {
	case StepPrecook, StepBoth:
		return PhasePrecook
	case StepCook:
		return PhaseCook
	default:
		return ""
	}
}

func hasStepTags(r Recipe) bool {
	for _, step := range r.Instructions {
		if len(step.Ingredients) > 0 || len(step.Equipment) > 0 {
			return true
		}
	}
	return false
}

func isPrepIngredient(ing Ingredient) bool {
	if ing.Preparation != nil && strings.TrimSpace(*ing.Preparation) != "" {
		return true
	}
	return containsAny(strings.ToLower(ing.Name), SeasoningKeywords)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// assigner tracks phase membership by ingredient index so duplicate names in
// a recipe are still kept apart.
type assigner struct {
	recipe     Recipe
	phaseOf    []string
	tools      map[string][]string // phase -> tool names
	seen       map[string]map[string]bool
	pending    []string // equipment from steps that matched no keyword
	knownTools []string
}

func newAssigner(r Recipe) *assigner {
	a := &assigner{
		recipe:  r,
		phaseOf: make([]string, len(r.Ingredients)),
		tools:   map[string][]string{PhasePrecook: {}, PhaseCook: {}},
		seen:    map[string]map[string]bool{PhasePrecook: {}, PhaseCook: {}},
	}
	known := map[string]bool{}
	for _, t := range append(slices.Clone(r.CookingTools), DefaultCookingTools...) {
		key := strings.ToLower(strings.TrimSpace(t))
		if key == "" || known[key] {
			continue
		}
		known[key] = true
		a.knownTools = append(a.knownTools, strings.TrimSpace(t))
	}
	return a
}

// resolve finds the recipe ingredient a step tag refers to: an exact
// case-insensitive match first, then the first name containing or contained
// in the tag.
func (a *assigner) resolve(tag string) int {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return -1
	}
	for i, ing := range a.recipe.Ingredients {
		if strings.ToLower(strings.TrimSpace(ing.Name)) == tag {
			return i
		}
	}
	for i, ing := range a.recipe.Ingredients {
		name := strings.ToLower(strings.TrimSpace(ing.Name))
		if name == "" {
			continue
		}
		if strings.Contains(name, tag) || strings.Contains(tag, name) {
			return i
		}
	}
	return -1
}

func (a *assigner) assign(idx int, phase string) {
	if a.phaseOf[idx] == "" {
		a.phaseOf[idx] = phase
	}
}

func (a *assigner) addTool(tool, phase string) {
	tool = strings.TrimSpace(tool)
	if tool == "" {
		return
	}
	if phase == "" {
		a.pending = append(a.pending, tool)
		return
	}
	key := strings.ToLower(tool)
	if a.seen[phase][key] {
		return
	}
	a.seen[phase][key] = true
	a.tools[phase] = append(a.tools[phase], tool)
}

func (a *assigner) hasTool(tool string) bool {
	key := strings.ToLower(strings.TrimSpace(tool))
	return a.seen[PhasePrecook][key] || a.seen[PhaseCook][key]
}

func (a *assigner) hasBoth() bool {
	return slices.Contains(a.phaseOf, PhasePrecook) && slices.Contains(a.phaseOf, PhaseCook)
}

func (a *assigner) phases() Phases {
	precook := Phase{
		Name:        PhasePrecook,
		Ingredients: []Ingredient{},
		Tools:       sortedTools(a.tools[PhasePrecook]),
		Description: "Get ingredients measured and prepped before any heat goes on.",
	}
	cook := Phase{
		Name:        PhaseCook,
		Ingredients: []Ingredient{},
		Tools:       sortedTools(a.tools[PhaseCook]),
		Description: "Active cooking over heat.",
	}
	for i, ing := range a.recipe.Ingredients {
		if a.phaseOf[i] == PhaseCook {
			cook.Ingredients = append(cook.Ingredients, ing)
		} else {
			precook.Ingredients = append(precook.Ingredients, ing)
		}
	}
	return Phases{Precook: precook, Cook: cook}
}

func sortedTools(tools []string) []string {
	out := slices.Clone(tools)
	if out == nil {
		out = []string{}
	}
	slices.SortFunc(out, func(x, y string) int {
		if c := strings.Compare(strings.ToLower(x), strings.ToLower(y)); c != 0 {
			return c
		}
		return strings.Compare(x, y)
	})
	return out
}
