package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/leonelquinteros/gotext"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"

	"price-tracker-bot/config"
	"price-tracker-bot/internal/api"
	"price-tracker-bot/internal/database"
	"price-tracker-bot/internal/monitor"
	"price-tracker-bot/internal/notify"
	"price-tracker-bot/internal/render"
	"price-tracker-bot/internal/scheduler"
)

type TrackerMetrics struct {
	RunsTotal         prometheus.Counter
	ChecksTotal       prometheus.Counter
	CheckFailures     *prometheus.CounterVec
	NotificationsSent prometheus.Counter
	LastRunUnix       prometheus.Gauge
}

var (
	metrics = NewTrackerMetrics()
)

func init() {
	config.InitConfig()
	setupLogging()
}

func NewTrackerMetrics() *TrackerMetrics {
	metrics := &TrackerMetrics{
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "price_tracker",
			Subsystem: "monitor",
			Name:      "runs_total",
			Help:      "The total number of monitoring runs",
		}),
		ChecksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "price_tracker",
			Subsystem: "monitor",
			Name:      "checks_total",
			Help:      "The total number of product checks attempted",
		}),
		CheckFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "price_tracker",
				Subsystem: "monitor",
				Name:      "check_failures",
				Help:      "Product checks that failed, by failure kind",
			},
			[]string{"reason"},
		),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "price_tracker",
			Subsystem: "monitor",
			Name:      "notifications_sent",
			Help:      "The total number of price-drop alerts delivered",
		}),
		LastRunUnix: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "price_tracker",
			Subsystem: "monitor",
			Name:      "last_run_unix",
			Help:      "Unix time of the last monitoring run",
		}),
	}

	prometheus.MustRegister(metrics.RunsTotal)
	prometheus.MustRegister(metrics.ChecksTotal)
	prometheus.MustRegister(metrics.CheckFailures)
	prometheus.MustRegister(metrics.NotificationsSent)
	prometheus.MustRegister(metrics.LastRunUnix)

	return metrics
}

func main() {
	_ = godotenv.Load()

	gotext.Configure("locales", strings.ToLower(config.GetString("lang")), "default")

	scheduleTime := config.GetString("schedule_time")
	if scheduleTime == "" {
		log.Fatal("SCHEDULE_TIME is required (standard cron expression)")
	}

	err := database.InitDB(config.GetString("db_path"))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDB()

	LoadMetricsFromDB()

	renderer, err := render.NewRenderer(
		config.GetString("user_agent"),
		time.Duration(config.GetInt("render_timeout_seconds"))*time.Second,
	)
	if err != nil {
		log.Fatalf("Failed to launch headless browser: %v", err)
	}
	defer renderer.Close()

	notifier, err := buildNotifier()
	if err != nil {
		log.Fatalf("Failed to configure notifications: %v", err)
	}

	store := database.NewStore()
	runner := monitor.NewRunner(store, renderer, notifier, monitor.Config{
		Workers:    config.GetInt("worker_count"),
		RunTimeout: time.Duration(config.GetInt("run_timeout_seconds")) * time.Second,
	})
	runner.OnResult = recordResult

	sched, err := scheduler.New(scheduleTime, func(ctx context.Context) {
		metrics.RunsTotal.Inc()
		metrics.LastRunUnix.SetToCurrentTime()
		if _, err := runner.Run(ctx); err != nil {
			log.Errorf("Monitoring run failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Invalid schedule %q: %v", scheduleTime, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched.Start(ctx)
	defer sched.Stop()

	go launchAPIServer(ctx, store, sched, runner)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Minute):
				SaveMetricsToDB()
			}
		}
	}()

	go func() {
		if err := launchMetricsAndHealthServer(config.GetInt("metrics_port")); err != nil {
			log.Fatalf("Failed to start metrics and health server: %v", err)
		}
	}()

	<-ctx.Done()
	SaveMetricsToDB()
	log.Println("Metrics saved, shutting down...")
}

func setupLogging() {
	log.SetLevel(log.InfoLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting price tracker bot...")
}

func buildNotifier() (notify.Notifier, error) {
	var channels []notify.Notifier

	if config.GetString("email") != "" {
		email, err := notify.NewEmailNotifier(notify.EmailConfig{
			Host:      config.GetString("smtp_host"),
			Port:      config.GetInt("smtp_port"),
			Sender:    config.GetString("email"),
			Password:  config.GetString("password"),
			Receivers: strings.Split(config.GetString("receiver_email"), ","),
		})
		if err != nil {
			return nil, err
		}
		channels = append(channels, email)
	}

	if token := config.GetString("telegram_bot_token"); token != "" {
		telegram, err := notify.NewTelegramNotifier(
			token,
			config.GetInt64("telegram_chat_id"),
			config.GetBool("debug"),
		)
		if err != nil {
			return nil, err
		}
		channels = append(channels, telegram)
	}

	if len(channels) == 0 {
		return nil, errors.New("no notification channel configured: set EMAIL or TELEGRAM_BOT_TOKEN")
	}
	return notify.NewFanout(channels...), nil
}

func recordResult(res monitor.Result) {
	metrics.ChecksTotal.Inc()
	if res.Failed() {
		metrics.CheckFailures.WithLabelValues(string(res.Failure)).Inc()
	}
	if res.Notified {
		metrics.NotificationsSent.Inc()
	}
}

func launchAPIServer(ctx context.Context, store *database.Store, sched *scheduler.Scheduler, runner *monitor.Runner) {
	if !config.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.NewHandler(store, sched, runner).Register(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.GetInt("api_port")),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("API server shutdown: %v", err)
		}
	}()

	log.Infof("Launching API server on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("API server failed: %v", err)
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func launchMetricsAndHealthServer(port int) error {
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", healthCheckHandler)

	log.Infof("Launching metrics and health endpoint on :%d", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), http.DefaultServeMux)
}

func LoadMetricsFromDB() {
	runsTotal, _ := database.GetMetric("runs_total")
	checksTotal, _ := database.GetMetric("checks_total")
	notificationsSent, _ := database.GetMetric("notifications_sent")

	metrics.RunsTotal.Add(runsTotal)
	metrics.ChecksTotal.Add(checksTotal)
	metrics.NotificationsSent.Add(notificationsSent)

	log.Println("Metrics loaded from database.")
}

func SaveMetricsToDB() {
	database.SaveMetric("runs_total", GetMetricValue(metrics.RunsTotal))
	database.SaveMetric("checks_total", GetMetricValue(metrics.ChecksTotal))
	database.SaveMetric("notifications_sent", GetMetricValue(metrics.NotificationsSent))

	log.Println("Metrics saved to database.")
}

func GetMetricValue(metric prometheus.Collector) float64 {
	var metricValue float64
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Printf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		metricValue = metricProto.Counter.GetValue()
	} else if metricProto.Gauge != nil {
		metricValue = metricProto.Gauge.GetValue()
	}
	return metricValue
}
