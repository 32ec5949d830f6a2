// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data: similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

// User is the directory entry for a chat-platform user.
//
// The ID is the platform's own identifier (e.g. "U024BE7LH"); we never mint our
// own user ids. Name is refreshed every time a token is issued for the user, so
// it can lag behind a rename until the next /team command.
type User struct {
	ID   string `json:"id"   db:"id"`
	Name string `json:"name" db:"name"`
}
