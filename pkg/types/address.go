package types

// Address is the shipping destination captured at checkout, stored as jsonb.
type Address struct {
	FullName string `json:"full_name"`
	Street   string `json:"street"`
	City     string `json:"city"`
	Zip      string `json:"zip"`
	Province string `json:"province,omitempty"`
	Country  string `json:"country"`
	Phone    string `json:"phone,omitempty"`
}
