package domain

// Taxonomy lists constrain the categorical tags the extraction model may
// assign to a recipe. The extraction prompt embeds them verbatim, so any
// change here changes what the model is allowed to return.
var (
	CourseTypes = []string{
		"Appetizer / Starter",
		"Main Course",
		"Side Dish",
		"Dessert",
		"Snack",
	}

	DietaryTypes = []string{
		"Vegetarian",
		"Vegan",
		"Non-Vegetarian",
		"Gluten-Free",
		"Keto / Low-Carb",
	}

	CookingMethods = []string{
		"Baking",
		"Frying",
		"Grilling",
		"Steaming",
		"Boiling / Simmering",
	}

	SpecialTags = []string{
		"Quick Meals",
		"Healthy",
		"Party Food",
		"Kids-Friendly",
		"Festive / Holiday",
	}
)
