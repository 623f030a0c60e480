package usda

// Food is a single hit from the FoodData Central search endpoint.
type Food struct {
	FdcID        int    `json:"fdcId"`
	Description  string `json:"description"`
	DataType     string `json:"dataType"`
	FoodCategory string `json:"foodCategory,omitempty"`
}

type searchResponse struct {
	TotalHits int    `json:"totalHits"`
	Foods     []Food `json:"foods"`
}

// FoodDetail is the payload of /food/{fdcId}.
type FoodDetail struct {
	FdcID         int            `json:"fdcId"`
	Description   string         `json:"description"`
	FoodNutrients []FoodNutrient `json:"foodNutrients"`
}

// FoodNutrient is one nutrient amount per 100g of the food.
type FoodNutrient struct {
	Nutrient Nutrient `json:"nutrient"`
	Amount   float64  `json:"amount"`
}

type Nutrient struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	UnitName string `json:"unitName"`
}
