package server

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/jayeshrk/securelogin/pkg/authn"
	"github.com/jayeshrk/securelogin/pkg/notify"
	"github.com/jayeshrk/securelogin/pkg/otp"
	"github.com/jayeshrk/securelogin/pkg/session"
	"github.com/jayeshrk/securelogin/pkg/signer"
	"github.com/jayeshrk/securelogin/pkg/store"
	"github.com/jayeshrk/securelogin/pkg/vault"
)

// Server wires the stores and the credential services behind one router.
type Server struct {
	Router *mux.Router
	DB     *gorm.DB

	Users    store.UsersStore
	Sessions store.SessionsStore
	Keys     store.KeysStore
	Blobs    store.BlobsStore

	Vault   *vault.Vault
	Signer  *signer.Signer
	Checker *authn.Checker
	OTP     *otp.Manager
	Issuer  *session.Issuer
	Mailer  notify.Mailer

	srv *http.Server
}

func NewServer(
	users store.UsersStore,
	sessions store.SessionsStore,
	keys store.KeysStore,
	blobs store.BlobsStore,
	v *vault.Vault,
	mailer notify.Mailer,
	db *gorm.DB,
	host string,
	port string,
) *Server {

	router := mux.NewRouter().UseEncodedPath()
	srv := &http.Server{
		Handler: handlers.LoggingHandler(os.Stdout, router),
		Addr:    host + ":" + port,
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{
		Router:   router,
		DB:       db,
		Users:    users,
		Sessions: sessions,
		Keys:     keys,
		Blobs:    blobs,
		Vault:    v,
		Signer:   signer.New(v, keys),
		Checker:  authn.NewChecker(users),
		OTP:      otp.NewManager(users),
		Issuer:   session.NewIssuer(sessions),
		Mailer:   mailer,
		srv:      srv,
	}
}

func (s Server) Start() error {
	return s.srv.ListenAndServe()
}
