package main

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"PosTerminal/app/config"
	"PosTerminal/app/database"
	"PosTerminal/app/models"
	"PosTerminal/app/services"
	"PosTerminal/app/websocket"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/windows"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

//go:embed all:frontend/dist
var assets embed.FS

// ToastsChangedEvent is emitted to the frontend with the full toast list
const ToastsChangedEvent = "toasts:changed"

// App struct
type App struct {
	ctx     context.Context
	dataDir string
	cfg     *config.AppConfig

	LoggerService        *services.LoggerService
	ConfigManagerService *services.ConfigManagerService
	ToastService         *services.ToastService
	CartService          *services.CartService
	CategoryService      *services.CategoryService
	ProductService       *services.ProductService
	AuthService          *services.AuthService
	StaffService         *services.StaffService
	KitchenService       *services.KitchenService
	WSServer             *websocket.Server
	WSManagementService  *websocket.ManagementService

	mu         sync.Mutex
	session    *services.Session
	isFirstRun bool
}

// NewApp creates a new App application struct
func NewApp(dataDir string, logger *services.LoggerService) *App {
	return &App{
		dataDir:              dataDir,
		LoggerService:        logger,
		ConfigManagerService: services.NewConfigManagerService(dataDir),
		ToastService:         services.NewToastService(services.DefaultToastTTL),
		CartService:          services.NewCartService(services.DefaultTaxRate),
		WSManagementService:  websocket.NewManagementService(nil),
	}
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	// Maximise window on startup (cross-version compatible)
	runtime.WindowMaximise(a.ctx)

	a.ToastService.OnChange(func(toasts []models.Toast) {
		runtime.EventsEmit(a.ctx, ToastsChangedEvent, toasts)
		if a.WSServer != nil {
			a.WSServer.BroadcastToasts(toasts)
		}
	})

	// Only start background services if not first run
	if !a.isFirstRun {
		a.startWebSocketServer()
	}
}

// domReady is called after front-end resources have been loaded
func (a *App) domReady(ctx context.Context) {
	// Add your action here
}

// beforeClose is called when the application is about to quit,
// either by clicking the window close button or calling runtime.Quit.
func (a *App) beforeClose(ctx context.Context) (prevent bool) {
	a.LoggerService.LogInfo("Application closing")

	// Stop WebSocket server
	if a.WSServer != nil {
		a.LoggerService.LogInfo("Stopping WebSocket server")
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.WSServer.Stop(stopCtx); err != nil {
			a.LoggerService.LogWarning("WebSocket server did not stop cleanly", err.Error())
		}
		cancel()
	}

	a.ToastService.Close()

	// Close database connection
	if err := database.Close(); err != nil {
		a.LoggerService.LogError("Error closing database", err)
	} else {
		a.LoggerService.LogInfo("Database connection closed successfully")
	}

	a.LoggerService.LogInfo("Application shutdown complete")
	return false
}

// shutdown is called at application termination
func (a *App) shutdown(ctx context.Context) {
	// Perform your teardown here
}

// initializeServices wires the services to the record store opened by database.Initialize
func (a *App) initializeServices(cfg *config.AppConfig) {
	a.cfg = cfg
	store := database.NewStore(database.GetDB())

	a.ToastService.SetTTL(cfg.ToastTTL())
	a.CartService = services.NewCartService(cfg.Business.TaxRate)

	base := services.NewBaseService(a.LoggerService, a.ToastService)
	a.CategoryService = services.NewCategoryService(store, base)
	a.ProductService = services.NewProductService(store, a.CategoryService, base, cfg.System.LowStockThreshold)
	a.AuthService = services.NewAuthService(store, base, cfg.Auth.JWTSecret, cfg.TokenTTL())
	a.StaffService = services.NewStaffService(store, base)
	a.KitchenService = services.NewKitchenService(store, base)

	a.WSServer = websocket.NewServer(cfg.Server.Port, cfg.Server.EnableMDNS)
	a.WSServer.SetLogger(a.LoggerService)
	a.WSServer.SetRESTHandlers(websocket.NewRESTHandlers(a.CategoryService, a.ProductService, a.KitchenService, a.AuthService))
	a.KitchenService.SetBroadcaster(a.WSServer)
	a.WSManagementService.SetServer(a.WSServer)

	a.LoggerService.LogInfo("Services initialized", "Driver: "+cfg.Database.Driver)
}

func (a *App) startWebSocketServer() {
	if a.WSServer == nil {
		return
	}
	a.LoggerService.LogInfo("Starting WebSocket server", fmt.Sprintf("Port: %d", a.WSServer.GetPort()))
	go func() {
		defer a.LoggerService.RecoverPanic()
		if err := a.WSServer.Start(); err != nil {
			a.LoggerService.LogError("WebSocket server error", err)
		}
	}()
}

// CompleteSetup is called by the setup wizard once the user has chosen a backend
func (a *App) CompleteSetup(cfg *config.AppConfig) error {
	if err := a.ConfigManagerService.CompleteSetup(cfg); err != nil {
		a.LoggerService.LogError("Setup failed", err)
		return err
	}
	a.initializeServices(cfg)
	a.startWebSocketServer()
	a.isFirstRun = false
	return nil
}

// IsFirstRun reports whether the setup wizard must be shown
func (a *App) IsFirstRun() bool {
	return a.isFirstRun
}

func main() {
	dataDir := config.DataDir()

	// Initialize logger FIRST to catch all errors
	loggerService := services.NewLoggerService(filepath.Join(dataDir, "logs"))
	if loggerService == nil {
		fmt.Println("CRITICAL: Logger service failed to initialize")
		os.Exit(1)
	}
	defer loggerService.Close()
	database.SetLogger(loggerService.Logger())

	// Recover from any panic and log it
	defer func() {
		if r := recover(); r != nil {
			loggerService.LogPanic(r)
			os.Exit(1)
		}
	}()

	loggerService.LogInfo("Application starting", "POS Terminal")
	if err := loggerService.CleanOldLogs(30); err != nil {
		loggerService.LogWarning("Could not clean old logs", err.Error())
	}

	// Load environment variables from .env file in project root (for development)
	if err := config.LoadEnv(); err != nil {
		loggerService.LogWarning(".env file not found, will use config.json if available")
	}

	app := NewApp(dataDir, loggerService)

	// Check if this is the first run
	isFirstRun, err := app.ConfigManagerService.IsFirstRun()
	if err != nil {
		loggerService.LogWarning("Could not check first run status", err.Error())
		isFirstRun = true
	}

	if !isFirstRun {
		loggerService.LogInfo("Loading configuration from config.json")
		cfg, err := app.ConfigManagerService.GetConfig()
		if err != nil {
			loggerService.LogError("Error loading config, will show setup wizard", err)
			isFirstRun = true
		} else if err := database.Initialize(cfg); err != nil {
			loggerService.LogError("Failed to initialize database with config", err)
			isFirstRun = true
		} else {
			app.initializeServices(cfg)
		}
	}
	app.isFirstRun = isFirstRun

	if isFirstRun {
		loggerService.LogInfo("First run detected - setup wizard will be shown")
	}

	bindList := []interface{}{
		app,
		app.LoggerService,
		app.ConfigManagerService,
		app.WSManagementService,
	}

	err = wails.Run(&options.App{
		Title:  "POS Terminal",
		Width:  1400,
		Height: 900,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		OnStartup:        app.startup,
		OnDomReady:       app.domReady,
		OnBeforeClose:    app.beforeClose,
		OnShutdown:       app.shutdown,
		Bind:             bindList,
		Windows: &windows.Options{
			WebviewIsTransparent: false,
			WindowIsTranslucent:  false,
			DisableWindowIcon:    false,
		},
		Menu: nil,
	})

	if err != nil {
		loggerService.LogError("Wails application error", err)
		println("Error:", err.Error())
	}
}
