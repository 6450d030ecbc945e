package models

// Genre is embedded in movies; a movie has one or more.
type Genre struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Director struct {
	Name      string `json:"name"`
	Bio       string `json:"bio"`
	BirthYear *int   `json:"birthYear,omitempty"`
	DeathYear *int   `json:"deathYear,omitempty"`
}

// Movie is a catalog record. Only ID participates in favorites.
// ImagePath is the artwork's storage key or URL; ImageURL is what clients
// should fetch (presigned when object storage is configured).
type Movie struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Genres      []Genre  `json:"genres"`
	Director    Director `json:"director"`
	ImagePath   string   `json:"imagePath"`
	ImageURL    string   `json:"imageUrl"`
	Featured    bool     `json:"featured"`
}
