package dto

// BookSearchResultDTO is one candidate returned by the catalog search.
type BookSearchResultDTO struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	CoverURL string `json:"cover_url"`
	ISBN     string `json:"isbn"`
}

type BookSearchDTO struct {
	Query string `form:"query" binding:"max=200"`
}
