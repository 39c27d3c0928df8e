package availability

type SlotInput struct {
	Weekday  *int   `json:"weekday" validate:"required,min=0,max=6"`
	TimeSlot string `json:"timeSlot" validate:"required,oneof=DAY NIGHT"`
	Status   string `json:"status" validate:"required,oneof=AVAILABLE UNAVAILABLE MEET_ONLY"`
}

type PutRequest struct {
	Slots []SlotInput `json:"slots" validate:"max=14,dive"`
}

type SlotResponse struct {
	Weekday  int    `json:"weekday"`
	TimeSlot string `json:"timeSlot"`
	Status   string `json:"status"`
}

type OverlapSlot struct {
	Weekday     int    `json:"weekday"`
	TimeSlot    string `json:"timeSlot"`
	MyStatus    string `json:"myStatus"`
	TheirStatus string `json:"theirStatus"`
}
