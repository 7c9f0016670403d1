package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/protocol-bank/custody-engine/internal/sandbox"
	"github.com/protocol-bank/custody-engine/internal/system"
)

var errControllerNotFound = errors.New("no controller wired for this wallet")

// NewSystemRouter exposes the system actor's wallet-factory and release
// operations over a chi router, grounded on webhook-handler/cmd/main.go's
// middleware stack (RequestID/RealIP/Logger/Recoverer/Timeout).
func NewSystemRouter(sys *system.System, controllerFor func(walletID string) (sandbox.Controller, bool)) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/system", func(r chi.Router) {
		r.Post("/wallets", createWalletHandler(sys))
		r.Get("/wallets/{user}", getWalletHandler(sys))
		r.Get("/releases", listReleasesHandler(sys))
		r.Post("/wallets/{user}/controllers", updateControllersHandler(sys, controllerFor))
	})

	return r
}

type createWalletRequest struct {
	Owner string `json:"owner"`
}

func createWalletHandler(sys *system.System) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createWalletRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, err)
			return
		}
		principalText, err := sys.CreateWallet(r.Context(), req.Owner)
		if err != nil {
			writeJSONError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"wallet_principal": principalText})
	}
}

func getWalletHandler(sys *system.System) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := chi.URLParam(r, "user")
		principalText, err := sys.GetCanister(user)
		if err != nil {
			writeJSONError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"wallet_principal": principalText})
	}
}

func listReleasesHandler(sys *system.System) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"releases": sys.Releases()})
	}
}

type updateControllersRequest struct {
	Requested []string `json:"requested"`
}

func updateControllersHandler(sys *system.System, controllerFor func(walletID string) (sandbox.Controller, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := chi.URLParam(r, "user")
		principalText, err := sys.GetCanister(user)
		if err != nil {
			writeJSONError(w, statusFor(err), err)
			return
		}
		ctrl, ok := controllerFor(principalText)
		if !ok {
			writeJSONError(w, http.StatusNotFound, errControllerNotFound)
			return
		}

		var req updateControllersRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, err)
			return
		}
		if err := sys.UpdateCanisterControllers(r.Context(), ctrl, user, principalText, req.Requested); err != nil {
			writeJSONError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"controllers": sys.Controllers()})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
