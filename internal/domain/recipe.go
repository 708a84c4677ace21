package domain

// Ingredient is a single recipe ingredient. Amount and unit are kept
// separate from the item name so portions can be scaled later.
type Ingredient struct {
	Item   string `json:"item"`
	Amount string `json:"amount,omitempty"`
	Unit   string `json:"unit,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// Instruction is one numbered preparation step.
type Instruction struct {
	StepNumber int    `json:"stepNumber"`
	Text       string `json:"instruction"`
}

// HealthifySection describes one generated variant of a recipe: the
// ingredient and instruction changes relative to the base recipe, plus a
// short explanation of why the changes were made.
type HealthifySection struct {
	Ingredients        []string `json:"ingredients"`
	Instructions       []string `json:"instructions"`
	CaloriesPerPortion int      `json:"caloriesPerPortion,omitempty"`
	Notes              string   `json:"notes"`
}

// Healthify holds the two variants generated for every recipe:
// "cut" reduces calories, "bulk" adds healthy volume.
type Healthify struct {
	Cut  HealthifySection `json:"cut"`
	Bulk HealthifySection `json:"bulk"`
}

// Recipe is the canonical structured record produced by the extraction
// pipeline. Fields with the _Local JSON suffix mirror their counterparts in
// the configured target language and are populated by the translation stage;
// they stay empty when translation is unavailable or fails.
type Recipe struct {
	Name               string        `json:"name"`
	NameLocal          string        `json:"name_Local,omitempty"`
	Description        string        `json:"description,omitempty"`
	DescriptionLocal   string        `json:"description_Local,omitempty"`
	TotalTime          string        `json:"totalTime"`
	Servings           int           `json:"servings,omitempty"`
	CaloriesPerPortion int           `json:"caloriesPerPortion,omitempty"`
	Ingredients        []Ingredient  `json:"ingredients"`
	IngredientsLocal   []Ingredient  `json:"ingredients_Local,omitempty"`
	Instructions       []Instruction `json:"instructions"`
	InstructionsLocal  []Instruction `json:"instructions_Local,omitempty"`
	Healthify          Healthify     `json:"healthify"`
	HealthifyLocal     *Healthify    `json:"healthify_Local,omitempty"`
	ImagePrompt        string        `json:"imagePrompt"`
	ImageURL           string        `json:"imageUrl,omitempty"`
	CourseType         string        `json:"course_type,omitempty"`
	DietaryType        string        `json:"dietary_type,omitempty"`
	CookingMethod      string        `json:"cooking_method,omitempty"`
	SpecialTags        string        `json:"special_tags,omitempty"`
}

// Translation holds the translated mirror of a recipe as produced by the
// translation stage. It is a partial record: only translatable fields are
// present, and any field the translator could not handle keeps the
// original-language text.
type Translation struct {
	Name         string
	Description  string
	Ingredients  []Ingredient
	Instructions []Instruction
	Healthify    *Healthify
}

// Validate checks that an extracted recipe has the minimum structure the
// pipeline relies on downstream.
func (r *Recipe) Validate() error {
	if r.Name == "" {
		return ErrEmptyRecipeName
	}
	if len(r.Instructions) == 0 {
		return ErrNoInstructions
	}
	return nil
}

// ApplyTranslation merges a translation into the recipe's _Local mirror
// fields. Empty translation fields are left unset so a partially failed
// translation degrades to the original-language text.
func (r *Recipe) ApplyTranslation(t *Translation) {
	if t == nil {
		return
	}
	if t.Name != "" {
		r.NameLocal = t.Name
	}
	if t.Description != "" {
		r.DescriptionLocal = t.Description
	}
	if len(t.Ingredients) > 0 {
		r.IngredientsLocal = t.Ingredients
	}
	if len(t.Instructions) > 0 {
		r.InstructionsLocal = t.Instructions
	}
	if t.Healthify != nil {
		r.HealthifyLocal = t.Healthify
	}
}
