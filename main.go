package main

import (
	"fmt"
	"log"
	"net/http"

	"contactbook/auth"
	"contactbook/config"
	"contactbook/handlers"
	"contactbook/i18n"
	"contactbook/store"

	"github.com/dchest/captcha"
	"github.com/gorilla/csrf"
)

func main() {
	if err := config.LoadConfig("config.json"); err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	if err := i18n.LoadTranslations("i18n"); err != nil {
		log.Fatalf("Error loading translations: %v", err)
	}

	auth.InitStore()

	st, err := store.New(config.AppConfig.UsersFile, config.AppConfig.DataDir)
	if err != nil {
		log.Fatalf("Error preparing data store: %v", err)
	}

	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	if config.AppConfig.EnableCaptcha {
		mux.Handle("/captcha/", captcha.Server(captcha.StdWidth, captcha.StdHeight))
	}

	handlers.RegisterHandlers(mux, st)

	addr := fmt.Sprintf("%s:%d", config.AppConfig.ListenIP, config.AppConfig.ListenPort)
	log.Printf("Server starting on %s (%s)", addr, config.AppConfig.AppName)

	// CSRF Protection
	// We need a 32-byte key. Using session key for now, assuming it's suitable.
	// In production, this should be a separate key.
	csrfMiddleware := csrf.Protect(
		[]byte(config.AppConfig.SessionKey),
		csrf.Secure(false), // Set to true in production with HTTPS
		csrf.Path("/"),
	)

	if err := http.ListenAndServe(addr, handlers.SecurityHeadersMiddleware(csrfMiddleware(mux))); err != nil {
		log.Fatal(err)
	}
}
