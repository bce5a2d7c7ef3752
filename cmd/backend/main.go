package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mdp/qrterminal/v3"

	"lan-file-drop/internal/audit"
	"lan-file-drop/internal/db"
	"lan-file-drop/internal/netaddr"
	"lan-file-drop/internal/server"
	"lan-file-drop/internal/storage"
)

const defaultPort = 8080

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "invalid_config", err)
		os.Exit(1)
	}

	// Audit trail (optional)
	if dsn := getenvDefault("DATABASE_URL", ""); dsn != "" {
		dbConn, err := audit.OpenDB(dsn)
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "db_connect_failed", err)
			os.Exit(1)
		}
		defer func() { _ = dbConn.Close() }()

		log.Printf("service=backend msg=%q", "running_migrations")
		if err := db.RunMigrations(dbConn); err != nil {
			log.Printf("service=backend msg=%q err=%v", "migration_failed", err)
			os.Exit(1)
		}
		log.Printf("service=backend msg=%q", "migrations_complete")
		cfg.Audit = audit.NewStore(dbConn)
	}

	// Object storage mirror (optional)
	if mc := mirrorConfig(); mc.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mirror, err := storage.NewMirror(ctx, mc)
		cancel()
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "mirror_init_failed", err)
			os.Exit(1)
		}
		cfg.Mirror = mirror
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "invalid_config", err)
		os.Exit(1)
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		log.Printf("service=backend msg=%q addr=%s err=%v", "listen_failed", cfg.Addr, err)
		os.Exit(1)
	}

	host, port := bannerHostPort(ln.Addr().String())
	url := "http://" + net.JoinHostPort(host, port)
	fmt.Printf("Serving HTTP on %s port %s (%s) ...\n", host, port, url)
	if getenvDefault("LFD_QR", "") != "" {
		qrterminal.GenerateHalfBlock(url, qrterminal.L, os.Stdout)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("service=backend msg=%q addr=%s dir=%s version=%s commit=%s",
			"starting", ln.Addr(), cfg.StorageDir, cfg.Build.Version, cfg.Build.Commit)
		errCh <- srv.Serve(ln)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("service=backend msg=%q signal=%s", "shutting_down", sig.String())
		// In-flight uploads get 5 seconds to finish.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("service=backend msg=%q err=%v", "shutdown_error", err)
			os.Exit(1)
		}
		log.Printf("service=backend msg=%q", "shutdown_complete")
	case err := <-errCh:
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "server_error", err)
			os.Exit(1)
		}
	}
}

// loadConfig builds the server configuration from the environment. The
// listen address defaults to the LAN address on port 8080.
func loadConfig() (server.Config, error) {
	maxUpload, err := getenvInt("LFD_MAX_UPLOAD_BYTES", 0)
	if err != nil {
		return server.Config{}, err
	}
	perMinute, err := getenvInt("LFD_UPLOADS_PER_MINUTE", 0)
	if err != nil {
		return server.Config{}, err
	}

	addr := os.Getenv("LFD_ADDR")
	if addr == "" {
		addr = netaddr.JoinHostPort(netaddr.LocalIP(), defaultPort)
	}

	return server.Config{
		Addr:             addr,
		StorageDir:       getenvDefault("LFD_STORAGE_DIR", "downloads"),
		MaxUploadBytes:   maxUpload,
		UploadsPerMinute: int(perMinute),
		TrustProxy:       getenvDefault("LFD_TRUST_PROXY", "") != "",
		Build: server.BuildInfo{
			Version: getenvDefault("LFD_VERSION", "dev"),
			Commit:  getenvDefault("LFD_COMMIT", "unknown"),
		},
	}, nil
}

func mirrorConfig() storage.MirrorConfig {
	return storage.MirrorConfig{
		Endpoint:  os.Getenv("LFD_S3_ENDPOINT"),
		AccessKey: os.Getenv("LFD_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("LFD_S3_SECRET_KEY"),
		Bucket:    os.Getenv("LFD_BUCKET"),
	}
}

// bannerHostPort turns the bound address into something a phone on the
// same network can open: wildcard hosts become the LAN address.
func bannerHostPort(addr string) (string, string) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, strconv.Itoa(defaultPort)
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = netaddr.LocalIP()
	}
	return host, port
}

// getenvDefault reads an environment variable and returns a default value if not set.
func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

// getenvInt parses a non-negative integer variable; unset means def.
func getenvInt(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, v)
	}
	return n, nil
}
