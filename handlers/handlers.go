package handlers

import (
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"

	"contactbook/auth"
	"contactbook/config"
	"contactbook/i18n"
	"contactbook/models"
	"contactbook/store"

	"github.com/dchest/captcha"
	"github.com/gorilla/csrf"
)

var contacts *store.Store

func RegisterHandlers(mux *http.ServeMux, s *store.Store) {
	contacts = s
	mux.HandleFunc("/", IndexHandler)
	mux.HandleFunc("/signup", SignupHandler)
	mux.HandleFunc("/signin", SigninHandler)
	mux.HandleFunc("/signout", SignoutHandler)
	mux.HandleFunc("/list", ListHandler)
	mux.HandleFunc("/categories/{type}", CategoriesHandler)
	mux.HandleFunc("/new", NewContactHandler)
}

// signedInUser is the gate in front of every authenticated route: anonymous
// requests are sent back to the landing page.
func signedInUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	user := auth.CurrentUser(r)
	if user == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return "", false
	}
	return user, true
}

func IndexHandler(w http.ResponseWriter, r *http.Request) {
	// The bare "/" pattern also catches unknown paths
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if auth.CurrentUser(r) != "" {
		http.Redirect(w, r, "/list", http.StatusFound)
		return
	}
	renderTemplate(w, r, "index.html", nil)
}

func SignupHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		lang := i18n.DetectLanguage(r)

		ip := getClientIP(r)
		if !signupLimiter.Allow(ip) {
			auth.Flash(w, r, i18n.T(lang, "TooManyAttempts"))
			renderTemplate(w, r, "signup.html", signupData())
			return
		}

		if config.AppConfig.EnableCaptcha &&
			!captcha.VerifyString(r.FormValue("captcha_id"), r.FormValue("captcha_solution")) {
			auth.Flash(w, r, i18n.T(lang, "WrongCaptcha"))
			renderTemplate(w, r, "signup.html", signupData())
			return
		}

		username := r.FormValue("username")
		password := r.FormValue("password")

		ok, err := contacts.AddUser(username, password)
		if err != nil {
			log.Printf("Error signing up %q: %v", username, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if !ok {
			// Deliberately coarse: the message never says whether the
			// username was taken or a field was empty.
			signupLimiter.RecordFailure(ip)
			auth.Flash(w, r, i18n.T(lang, "InvalidSignup"))
			renderTemplate(w, r, "signup.html", signupData())
			return
		}

		signupLimiter.Reset(ip)
		auth.SignIn(w, r, username)
		auth.Flash(w, r, i18n.T(lang, "Welcome"))
		http.Redirect(w, r, "/list", http.StatusFound)
		return
	}
	renderTemplate(w, r, "signup.html", signupData())
}

func signupData() map[string]any {
	data := map[string]any{}
	if config.AppConfig.EnableCaptcha {
		data["CaptchaID"] = captcha.New()
	}
	return data
}

func SigninHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		lang := i18n.DetectLanguage(r)

		ip := getClientIP(r)
		if !signinLimiter.Allow(ip) {
			auth.Flash(w, r, i18n.T(lang, "TooManyAttempts"))
			renderTemplate(w, r, "signin.html", nil)
			return
		}

		username := r.FormValue("username")
		password := r.FormValue("password")

		if !contacts.Verify(username, password) {
			// Same generic message for unknown users and wrong passwords
			signinLimiter.RecordFailure(ip)
			auth.Flash(w, r, i18n.T(lang, "InvalidSignin"))
			renderTemplate(w, r, "signin.html", nil)
			return
		}

		signinLimiter.Reset(ip)
		auth.SignIn(w, r, username)
		auth.Flash(w, r, i18n.T(lang, "WelcomeBack"))
		http.Redirect(w, r, "/list", http.StatusFound)
		return
	}
	renderTemplate(w, r, "signin.html", nil)
}

// SignoutHandler clears the session identity. Signing out while already
// signed out is harmless.
func SignoutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	lang := i18n.DetectLanguage(r)
	auth.SignOut(w, r)
	auth.Flash(w, r, i18n.T(lang, "Goodbye"))
	http.Redirect(w, r, "/", http.StatusFound)
}

func ListHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := signedInUser(w, r)
	if !ok {
		return
	}
	renderTemplate(w, r, "list.html", map[string]any{
		"Username":   user,
		"Categories": models.Buckets,
	})
}

func CategoriesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := signedInUser(w, r)
	if !ok {
		return
	}

	category, valid := models.ParseCategory(r.PathValue("type"))
	if !valid {
		http.Redirect(w, r, "/list", http.StatusFound)
		return
	}

	book, err := contacts.Contacts(user)
	if err != nil {
		log.Printf("Error loading contacts for %q: %v", user, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	renderTemplate(w, r, "categories.html", map[string]any{
		"Category": category,
		"Contacts": book.Bucket(category),
	})
}

func NewContactHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := signedInUser(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodPost {
		lang := i18n.DetectLanguage(r)

		bucket, valid := models.ParseBucket(r.FormValue("category"))
		if !valid {
			auth.Flash(w, r, i18n.T(lang, "InvalidCategory"))
			renderTemplate(w, r, "new.html", map[string]any{"Categories": models.Buckets})
			return
		}

		contact := models.Contact{
			Name:   r.FormValue("contact"),
			Mobile: r.FormValue("mobile"),
			Home:   r.FormValue("home"),
			Email:  r.FormValue("email"),
		}

		// The duplicate check and the append must see the same document
		// state, so both run inside one store update.
		err := contacts.UpdateContacts(user, func(book *models.ContactBook) error {
			return book.Add(bucket, contact)
		})
		if errors.Is(err, models.ErrInvalidName) {
			auth.Flash(w, r, i18n.T(lang, "InvalidContactName"))
			renderTemplate(w, r, "new.html", map[string]any{"Categories": models.Buckets})
			return
		}
		if err != nil {
			log.Printf("Error saving contacts for %q: %v", user, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		name := strings.TrimSpace(r.FormValue("contact"))
		auth.Flash(w, r, fmt.Sprintf(i18n.T(lang, "ContactAdded"), name))
		http.Redirect(w, r, "/list", http.StatusFound)
		return
	}

	renderTemplate(w, r, "new.html", map[string]any{"Categories": models.Buckets})
}

func renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	lang := i18n.DetectLanguage(r)

	funcMap := template.FuncMap{
		"T": func(key string) string {
			return i18n.T(lang, key)
		},
	}

	dir := config.AppConfig.TemplatesDir
	tmpl, err := template.New(name).Funcs(funcMap).ParseFiles(dir+"/layout.html", dir+"/"+name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	m, ok := data.(map[string]any)
	if !ok {
		m = map[string]any{}
	}
	if _, exists := m["AppName"]; !exists {
		m["AppName"] = config.AppConfig.AppName
	}
	m["Lang"] = lang
	m["csrfField"] = csrf.TemplateField(r)
	m["SignedIn"] = auth.CurrentUser(r) != ""

	// Consume pending flashes before the body is written so the cleared
	// session state makes it into the response headers. Every popped
	// message is rendered; popping without showing would lose it for good.
	if flashes := auth.Flashes(w, r); len(flashes) > 0 {
		m["Messages"] = flashes
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	tmpl.ExecuteTemplate(w, "layout", m)
}
