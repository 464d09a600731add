package models

// IndexDocument is the flattened projection of a Biodata kept in the search
// index. ID always equals the Biodata ID.
type IndexDocument struct {
	ID              string `json:"id"`
	FullName        string `json:"fullName"`
	BiodataType     string `json:"biodataType"`
	MaritalStatus   string `json:"maritalStatus"`
	Age             int    `json:"age"`
	Height          string `json:"height"`
	Complexion      string `json:"complexion"`
	Profession      string `json:"profession"`
	Occupation      string `json:"occupation"`
	FamilyStatus    string `json:"familyStatus"`
	PresentDivision string `json:"presentDivision"`
	PresentDistrict string `json:"presentDistrict"`
	PresentUpazilla string `json:"presentUpazilla"`
	Address         string `json:"address"`
	Location        string `json:"location"`
	DisplayName     string `json:"displayName"`
	BirthYear       string `json:"birthYear"`
	CreatedAt       int64  `json:"createdAt"`
	UpdatedAt       int64  `json:"updatedAt"`
}

// SearchFilters maps a filter name to its form value. "all" and "" mean no
// constraint.
type SearchFilters map[string]string

// SearchRequest is everything the search form sends.
type SearchRequest struct {
	Filters   SearchFilters
	Query     string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
	UserID    string
}

// SearchResultItem is the public projection of one hit.
type SearchResultItem struct {
	ID            string `json:"id"`
	DisplayName   string `json:"displayName"`
	FullName      string `json:"fullName"`
	Age           int    `json:"age"`
	Location      string `json:"location"`
	Occupation    string `json:"occupation"`
	MaritalStatus string `json:"maritalStatus"`
	Height        string `json:"height"`
	BiodataType   string `json:"biodataType"`
	Complexion    string `json:"complexion"`
	FamilyStatus  string `json:"familyStatus"`
}

type FacetValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type FacetCount struct {
	FieldName string       `json:"field_name"`
	Counts    []FacetValue `json:"counts"`
}

// SearchResponse keeps the envelope the search page already understands.
// TotalCount and TotalPages come from the index before ignore-list filtering.
type SearchResponse struct {
	Success         bool               `json:"success"`
	Message         string             `json:"message,omitempty"`
	Data            []SearchResultItem `json:"data"`
	TotalCount      int                `json:"totalCount"`
	CurrentPage     int                `json:"currentPage"`
	TotalPages      int                `json:"totalPages"`
	HasNextPage     bool               `json:"hasNextPage"`
	HasPreviousPage bool               `json:"hasPreviousPage"`
	Facets          []FacetCount       `json:"facets,omitempty"`
	FilterBy        string             `json:"filterBy,omitempty"`
}

func (d IndexDocument) DocumentID() string {
	return d.ID
}
