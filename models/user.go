package models

// UserProfile is the candidate profile the resume context is built from.
type UserProfile struct {
	ClerkID         string   `json:"clerk_id" db:"clerk_id"`
	Name            string   `json:"name" db:"name"`
	Skills          []string `json:"skills" db:"skills"`
	Projects        []string `json:"projects" db:"projects"`
	Experience      []string `json:"experience" db:"experience"`
	Education       []string `json:"education" db:"education"`
	TargetCompanies []string `json:"target_companies" db:"target_companies"`
}
