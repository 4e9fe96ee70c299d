// cmd/seeduser creates the first administrator, or prints a bcrypt hash
// for manual inserts with -solo-hash.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/config"
	"github.com/Leoramirez777/gestor-prestamista/internal/dto"
	"github.com/Leoramirez777/gestor-prestamista/internal/infra"
	"github.com/Leoramirez777/gestor-prestamista/internal/repository"
	"github.com/Leoramirez777/gestor-prestamista/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	username := flag.String("username", "admin", "nombre de usuario")
	password := flag.String("password", "", "contraseña (min. 8 caracteres)")
	nombre := flag.String("nombre", "Administrador", "nombre visible")
	rol := flag.String("rol", "administrador", "administrador | supervisor")
	soloHash := flag.Bool("solo-hash", false, "solo imprime el hash bcrypt de -password")
	flag.Parse()

	if len(*password) < 8 {
		log.Fatal().Msg("-password es obligatorio y debe tener al menos 8 caracteres")
	}

	if *soloHash {
		h, err := bcrypt.GenerateFromPassword([]byte(*password), 12)
		if err != nil {
			log.Fatal().Err(err).Msg("bcrypt")
		}
		fmt.Println(string(h))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	ctx := context.Background()
	usuarios := repository.NewUsuarioRepository(db)
	if _, err := usuarios.FindByUsername(ctx, *username); err == nil {
		log.Info().Str("username", *username).Msg("el usuario ya existe, nada que hacer")
		return
	}

	auth := service.NewAuthService(usuarios, repository.NewEmpleadoRepository(db), cfg)
	u, err := auth.CrearUsuario(ctx, dto.CrearUsuarioRequest{
		Username: *username,
		Nombre:   *nombre,
		Password: *password,
		Rol:      *rol,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("no se pudo crear el usuario")
	}
	log.Info().Str("id", u.ID).Str("username", u.Username).Str("rol", u.Rol).Msg("usuario creado")
}
