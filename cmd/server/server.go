package main

import (
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/kokukuma/mdoc-credential/internal/server"
)

func main() {
	srv, err := server.NewServer()
	if err != nil {
		log.Fatal(err)
	}

	r := mux.NewRouter()
	r.Use(handlers.CORS(
		handlers.AllowedMethods([]string{"POST", "GET", "DELETE"}),
		handlers.AllowedHeaders([]string{"content-type"}),
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowCredentials(),
	))

	r.HandleFunc("/issue", srv.Issue).Methods("POST", "OPTIONS")
	r.HandleFunc("/verify", srv.Verify).Methods("POST", "OPTIONS")
	r.HandleFunc("/root-certificate", srv.RootCertificate).Methods("GET", "OPTIONS")

	serverAddress := ":8080"
	log.Println("starting mdoc credential server at", serverAddress)
	log.Fatal(http.ListenAndServe(serverAddress, r))
}
