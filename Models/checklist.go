package Models

// PhotoGuide describes one required checklist shot.
type PhotoGuide struct {
	ID          int    `json:"id"`
	Label       string `json:"label"`
	Instruction string `json:"instruction"`
	Example     string `json:"example"`
}

// PhotoGuides is the fixed capture checklist. Every inspection needs exactly
// one photo per guide before it can be finalized. The order is the order the
// client device walks through.
var PhotoGuides = []PhotoGuide{
	{ID: 1, Label: "Vehicle Front", Instruction: "Photograph the front with the plate and chassis visible", Example: "Stand about 3 meters from the vehicle"},
	{ID: 2, Label: "Vehicle Rear", Instruction: "Photograph the rear showing the full plate", Example: "Make sure the plate is readable"},
	{ID: 3, Label: "Left Side", Instruction: "Full photo of the left side of the vehicle", Example: "Capture the whole side of the car"},
	{ID: 4, Label: "Right Side", Instruction: "Full photo of the right side of the vehicle", Example: "Capture the whole side of the car"},
	{ID: 5, Label: "Dashboard/Odometer", Instruction: "Photo of the dashboard showing the mileage", Example: "The odometer reading must be readable"},
	{ID: 6, Label: "Engine", Instruction: "Photo of the engine with the hood open", Example: "Full engine bay visible"},
}

// GuideBySlot returns the checklist entry for a 1-based slot number.
func GuideBySlot(slot int) (PhotoGuide, bool) {
	for _, guide := range PhotoGuides {
		if guide.ID == slot {
			return guide, true
		}
	}
	return PhotoGuide{}, false
}
