// Package main runs the Books API server.
//
//	@title			Books API
//	@version		1.0
//	@description	CRUD básico para libros
//	@BasePath		/
package main

import (
	"log"

	"booksapi/internal/app"
)

//go:generate swag init -g cmd/books/main.go -d ../../ -o ../../docs

func main() {
	application, err := app.New()
	if err != nil {
		log.Fatal(err)
	}

	if err := application.Run(); err != nil {
		log.Fatal(err)
	}
}
