package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/softrh/softrh/internal/api"
	"github.com/softrh/softrh/internal/config"
	"github.com/softrh/softrh/internal/dashboard"
	"github.com/softrh/softrh/internal/notify"
	"github.com/softrh/softrh/internal/recordstore"
)

// maxConns bounds concurrent HTTP connections on the local listener.
const maxConns = 64

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, live dashboard feed and MCP server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		noMCP, _ := cmd.Flags().GetBool("no-mcp")
		seed, _ := cmd.Flags().GetBool("seed")
		return runServer(!noMCP, seed)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running softrh server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show softrh server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	serveCmd.Flags().Bool("no-mcp", false, "do not serve MCP on stdin/stdout")
	serveCmd.Flags().Bool("seed", false, "load sample data when the store has no employees")
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "softrh.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func healthy(port int) bool {
	c := &http.Client{Timeout: 2 * time.Second}
	resp, err := c.Get(fmt.Sprintf("http://127.0.0.1:%d/health", port))
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func runServer(withMCP, seed bool) error {
	fmt.Fprintln(os.Stderr, versionString())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			printWarning("closing storage: %v", err)
		}
	}()
	cfg, log := a.cfg, a.log

	apiToken, err := config.GetAPIToken(config.NewKeychain())
	if err != nil {
		return fmt.Errorf("getting API token: %w", err)
	}
	log.Info("API bearer token available")

	pidPath := pidFilePath(cfg.Storage.DataDir)
	if healthy(cfg.Server.Port) {
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("softrh is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("softrh is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	if seed {
		seeded, err := recordstore.Seed(ctx, a.store)
		if err != nil {
			return fmt.Errorf("seeding: %w", err)
		}
		if seeded {
			log.Info("sample data loaded")
		}
	}

	hub := notify.NewHub(log)
	feed := notify.NewFeed(hub, dashboard.New(a.store))
	a.store.Subscribe(feed)

	if cfg.Broker.URL != "" {
		pub, err := notify.NewPublisher(cfg.Broker.URL, cfg.Broker.Queue)
		if err != nil {
			return fmt.Errorf("starting change publisher: %w", err)
		}
		defer pub.Close()
		a.store.Subscribe(pub)
		log.Info("publishing changes", "queue", cfg.Broker.Queue)
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler: api.NewHandler(api.Deps{
			Store: a.store,
			Token: apiToken,
			Hub:   hub,
			Feed:  feed,
			Log:   log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run()
		return nil
	})

	g.Go(func() error {
		fmt.Fprintf(os.Stderr, "softrh listening on %s\n", addr)
		if err := srv.Serve(netutil.LimitListener(ln, maxConns)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if withMCP {
		mcpSrv := api.NewMCPServer(api.MCPDeps{Store: a.store, Version: version})
		stdio := server.NewStdioServer(mcpSrv)
		g.Go(func() error {
			err := stdio.Listen(gctx, os.Stdin, os.Stdout)
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
				log.Error("MCP stdio server error", "error", err)
			}
			return nil
		})
		log.Info("MCP server started (stdio transport)")
	}

	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		hub.Stop()
		return err
	})

	return g.Wait()
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("softrh is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop softrh (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to softrh (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context, w io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	running := healthy(cfg.Server.Port)
	if running {
		printStatus(w, "Server", "running on port %d", cfg.Server.Port)
	} else {
		printStatus(w, "Server", "stopped")
	}
	printStatus(w, "Storage", "%s", cfg.Storage.Backend)
	if cfg.Storage.Backend == "mongo" {
		printStatus(w, "Database", "%s", cfg.Storage.MongoDatabase)
	} else {
		printStatus(w, "Data dir", "%s", cfg.Storage.DataDir)
	}
	err = withApp(ctx, func(a *app) error {
		fp, err := a.store.Footprint(ctx)
		if err != nil {
			return err
		}
		printStatus(w, "Document", "%s, %d bytes, last write %s",
			fp.Key, fp.Size, fp.UpdatedAt.Local().Format(time.DateTime))
		return nil
	})
	if err != nil {
		printWarning("reading storage: %v", err)
	}
	if cfg.Broker.URL != "" {
		printStatus(w, "Broker queue", "%s", cfg.Broker.Queue)
	}

	if !running {
		return nil
	}
	client, err := newAPIClient()
	if err != nil {
		printWarning("%v", err)
		return nil
	}
	resp, err := client.get(ctx, "/estatisticas")
	if err != nil {
		printWarning("%v", err)
		return nil
	}
	var st recordstore.Statistics
	if err := decodeJSON(resp, &st); err != nil {
		printWarning("reading statistics: %v", err)
		return nil
	}
	printStatus(w, "Employees", "%d", st.TotalEmployees)
	printStatus(w, "Pending vacations", "%d", st.PendingVacations)
	printStatus(w, "Expiring documents", "%d", st.ExpiringDocuments)
	return nil
}
