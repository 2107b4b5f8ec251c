package model

// Playlist is a catalog playlist that matched tracks can be added to
type Playlist struct {
	ID   string
	Name string
	URI  string
}
