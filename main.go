// @title           Medição API
// @version         1.0
// @description     Backend do Boletim de Medição - importação de planilhas de preços, relatórios diários de atividade e consolidação da medição.

// @contact.name   API Support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath  /

// @schemes http https
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"medicao/catalog"
	_ "medicao/docs"
	"medicao/handlers"
	"medicao/services"
	"medicao/storage"
)

// guards the daily maintenance job against overlapping runs
var cronRunning int32

func CORSConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"http://localhost:9000",
		"http://localhost:8080",
		"http://localhost:3000",
		"http://localhost:5173",
	}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		corsConfig.AllowOrigins = append(corsConfig.AllowOrigins, extra)
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Content-Type", "Content-Length", "Accept-Encoding",
		"Accept", "Origin", "X-Requested-With", "Authorization", "User-Agent",
		"Cache-Control", "Referer",
		"Access-Control-Request-Method", "Access-Control-Request-Headers",
	}
	corsConfig.AllowMethods = []string{
		"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD", "PATCH",
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length", "Content-Type", "Content-Disposition",
	}
	corsConfig.MaxAge = 12 * time.Hour
	return corsConfig
}

func main() {
	db := storage.InitDB()
	gormDB := storage.InitGormDB()

	matchDBPath := os.Getenv("MATCH_DB_PATH")
	if matchDBPath == "" {
		matchDBPath = "data/matches.db"
	}
	matches, err := storage.OpenMatchStore(matchDBPath)
	if err != nil {
		log.Fatal("Failed to open learned-match store:", err)
	}
	defer matches.Close()

	ingestor := catalog.NewIngestor(&storage.SQLSheetStore{DB: db})
	maxSheets := catalog.DefaultMaxSheetsPerContractor
	if v := os.Getenv("MAX_SHEETS_PER_CONTRACTOR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxSheets = n
		}
	}
	var maxUpload int64 = catalog.DefaultMaxFileSize
	if v := os.Getenv("MAX_UPLOAD_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			maxUpload = n
		}
	}
	ingestor.SetLimits(maxSheets, maxUpload)
	extraction := services.NewExtractionService()

	// Daily maintenance: sweep uploads no sheet file record references
	// anymore (failed ingestions, crashes between write and commit).
	c := cron.New(
		cron.WithLogger(cron.VerbosePrintfLogger(log.New(os.Stdout, "cron: ", log.LstdFlags))),
	)
	_, err = c.AddFunc("30 23 * * *", func() {
		if !atomic.CompareAndSwapInt32(&cronRunning, 0, 1) {
			log.Println("Previous maintenance run still going. Skipping this run.")
			return
		}
		defer atomic.StoreInt32(&cronRunning, 0)

		log.Println("Starting daily maintenance job")
		removed, err := storage.SweepOrphanUploads(db)
		if err != nil {
			log.Printf("Orphan upload sweep failed: %v", err)
			return
		}
		log.Printf("Daily maintenance finished, %d orphan upload(s) removed", removed)
	})
	if err != nil {
		log.Fatal("Failed to schedule maintenance job:", err)
	}
	c.Start()
	defer c.Stop()

	r := gin.Default()
	r.Use(cors.New(CORSConfig()))

	// ==================== 1. PRICE SHEETS & CATALOG ====================
	r.POST("/api/price_sheets", handlers.UploadPriceSheet(ingestor))
	r.GET("/api/price_sheets", handlers.ListSheetFiles(db))
	r.DELETE("/api/price_sheets/:id", handlers.DeleteSheetFile(db))

	r.GET("/api/price_items", handlers.ListPriceItems(db))
	r.POST("/api/price_items", handlers.CreatePriceItem(gormDB))
	r.PUT("/api/price_items/:id", handlers.UpdatePriceItem(gormDB))
	r.DELETE("/api/price_items/:id", handlers.DeletePriceItem(gormDB))

	r.GET("/api/contractors", handlers.ListContractors(db))
	r.DELETE("/api/contractors/:name/catalog", handlers.DeleteContractorCatalog(db))

	// ==================== 2. DAILY REPORTS ====================
	r.POST("/api/reports", handlers.CreateReport(db, gormDB))
	r.GET("/api/reports", handlers.ListReports(gormDB))
	r.GET("/api/reports/:id", handlers.GetReport(db, gormDB))
	r.PUT("/api/reports/:id", handlers.UpdateReport(gormDB))
	r.DELETE("/api/reports/:id", handlers.DeleteReport(db))

	// ==================== 3. EXTRACTION & RECONCILIATION ====================
	r.POST("/api/extract", handlers.ExtractDocument(extraction))
	r.POST("/api/service_entries/reconcile", handlers.ReconcileEntries(db, matches))
	r.POST("/api/service_entries/confirm", handlers.ConfirmEntries(db, gormDB, matches))
	r.GET("/api/service_entries", handlers.ListServiceEntries(db))
	r.DELETE("/api/service_entries/:id", handlers.DeleteServiceEntry(gormDB))

	// ==================== 4. MEASUREMENTS & EXPORT ====================
	r.GET("/api/measurements", handlers.GetMeasurementSummary(db))
	r.GET("/api/measurements/by_code", handlers.GetMeasurementByCode(db))
	r.GET("/api/measurements/export", handlers.ExportMeasurementXLSX(db))
	r.GET("/api/measurements/pdf", handlers.GenerateMeasurementPDF(db))
	r.GET("/api/measurements/qr", handlers.GenerateMeasurementQR(db))

	// ==================== 5. DOCS & HEALTH ====================
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))
	r.GET("/api/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "9000"
	}
	portInt, err := strconv.Atoi(port)
	if err != nil {
		log.Fatalf("Invalid PORT environment variable: %s. Must be a number.", port)
	}
	if portInt < 0 || portInt > 65535 {
		log.Fatalf("Invalid PORT: %d. Must be between 0 and 65535.", portInt)
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exiting")
}
