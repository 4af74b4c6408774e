package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	logger "github.com/beka-birhanu/vinom-common/log"
	"github.com/beka-birhanu/vinom-labyrinth/api"
	api_i "github.com/beka-birhanu/vinom-labyrinth/api/i"
	labyrinthapi "github.com/beka-birhanu/vinom-labyrinth/api/labyrinth"
	"github.com/beka-birhanu/vinom-labyrinth/config"
	"github.com/beka-birhanu/vinom-labyrinth/infrastruture/sortedstorage"
	"github.com/beka-birhanu/vinom-labyrinth/maze"
	pb "github.com/beka-birhanu/vinom-labyrinth/maze/pb_encoder"
	"github.com/beka-birhanu/vinom-labyrinth/service"
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"github.com/beka-birhanu/vinom-labyrinth/tcp"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Global variables for dependencies
var (
	logFile             *os.File
	logWriter           io.Writer = os.Stdout
	redisClient         *redis.Client
	connectionSet       i.SortedSet
	connectionIndex     *service.ConnectionIndex
	generator           i.MazeGenerator
	labyrinthService    *service.Labyrinth
	socketManager       *tcp.ServerSocketManager
	labyrinthController api_i.Controller
	router              *api.Router
	appLogger           general_i.Logger
)

func newLogger(prefix, color string) general_i.Logger {
	l, err := logger.New(prefix, color, logWriter)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating %s logger: %v", prefix, err))
		os.Exit(1)
	}
	return l
}

func initLogWriter() {
	if config.Envs.LogFile == "" {
		return
	}

	var err error
	logFile, err = os.OpenFile(config.Envs.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[APP] [FATAL] Opening log file %s: %v\n", config.Envs.LogFile, err)
		os.Exit(1)
	}
	logWriter = io.MultiWriter(os.Stdout, logFile)
}

func initRedis(ctx context.Context) {
	if config.Envs.RedisAddr == "" {
		appLogger.Info("Redis address not set, connection index disabled")
		return
	}

	redisClient = redis.NewClient(&redis.Options{Addr: config.Envs.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		appLogger.Error(fmt.Sprintf("Redis ping failed: %v", err))
		os.Exit(1)
	}

	set, err := sortedstorage.NewRedisSortedSet(redisClient, config.Envs.RedisKeyTTL)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating redis sorted set: %v", err))
		os.Exit(1)
	}

	instanceID := uuid.New().String()
	connectionIndex, err = service.NewConnectionIndex(set, instanceID)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating connection index: %v", err))
		os.Exit(1)
	}
	if err := connectionIndex.Join(ctx); err != nil {
		appLogger.Error(fmt.Sprintf("Joining connection index: %v", err))
		os.Exit(1)
	}

	connectionSet = set
	appLogger.Info(fmt.Sprintf("Connected to Redis as instance %s", instanceID))
}

// startHeartbeat keeps this instance's index entries from expiring while it runs.
func startHeartbeat() (stop func()) {
	ttl := time.Duration(config.Envs.RedisKeyTTL) * time.Second
	if connectionIndex == nil || ttl <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	ticker := time.NewTicker(ttl / 3)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := connectionIndex.Heartbeat(ctx); err != nil {
					appLogger.Warning(fmt.Sprintf("Connection index heartbeat: %v", err))
				}
				cancel()
			}
		}
	}()
	return func() { close(done) }
}

func initGenerator() {
	source := maze.RandomSource()
	if config.Envs.MazeSeed != nil {
		source = maze.SeededSource(*config.Envs.MazeSeed)
		appLogger.Info(fmt.Sprintf("Labyrinths are seeded with %d", *config.Envs.MazeSeed))
	}

	generator = maze.NewGenerator(
		maze.WithMaxDimension(config.Envs.MazeMaxDimension),
		maze.WithRandSource(source),
	)
	appLogger.Info("Maze generator initialized")
}

func initLabyrinthService() {
	var err error
	labyrinthService, err = service.NewLabyrinth(&service.Config{
		Generator: generator,
		Encoder:   &pb.Protobuf{},
		Logger:    newLogger("LABYRINTH", config.ColorCyan),
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating labyrinth service: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Labyrinth service initialized")
}

func initTCPSocketManager() {
	registryOptions := []tcp.RegistryOption{tcp.RegistryWithLogger(newLogger("REGISTRY", config.ColorPurple))}
	if connectionIndex != nil {
		registryOptions = append(registryOptions, tcp.RegistryWithMirror(connectionSet, connectionIndex.Key()))
	}

	server, err := tcp.NewServerSocketManager(
		tcp.ServerConfig{
			ListenAddr: fmt.Sprintf("%s:%d", config.Envs.HostIP, config.Envs.TCPPort),
			Handler:    labyrinthService,
		},
		tcp.ServerWithLogger(newLogger("SERVER-SOCKET", config.ColorBlue)),
		tcp.ServerWithRegistry(tcp.NewRegistry(registryOptions...)),
	)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating TCP socket manager: %v", err))
		os.Exit(1)
	}

	socketManager = server
	appLogger.Info("TCP Socket Manager initialized")
}

func initLabyrinthController() {
	var counter i.ConnectionCounter
	if connectionIndex != nil {
		counter = connectionIndex
	}
	labyrinthController = labyrinthapi.NewController(labyrinthService, socketManager, counter)
	appLogger.Info("Labyrinth controller initialized")
}

func initRouter() {
	gin.SetMode(config.Envs.GinMode)
	router = api.NewRouter(api.Config{
		Addr:        fmt.Sprintf("%s:%v", config.Envs.HostIP, config.Envs.RESTPort),
		BaseURL:     "/api",
		Controllers: []api_i.Controller{labyrinthController},
	})
	appLogger.Info("Router initialized")
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	initLogWriter()
	if logFile != nil {
		defer logFile.Close()
	}

	appLogger, _ = logger.New("APP", config.ColorGreen, logWriter)

	initRedis(ctx)
	if redisClient != nil {
		defer redisClient.Close()
	}

	initGenerator()
	initLabyrinthService()
	initTCPSocketManager()
	stopHeartbeat := startHeartbeat()

	go func() {
		if err := socketManager.Serve(); err != nil {
			appLogger.Error(fmt.Sprintf("Serving TCP: %v", err))
			os.Exit(1)
		}
	}()

	if config.Envs.RESTPort != 0 {
		initLabyrinthController()
		initRouter()

		go func() {
			if err := router.Run(); err != nil {
				appLogger.Error(fmt.Sprintf("Starting server: %v", err))
				os.Exit(1)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	stopHeartbeat()
	socketManager.Stop()
	if connectionIndex != nil {
		leaveCtx, leaveCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := connectionIndex.Leave(leaveCtx); err != nil {
			appLogger.Warning(fmt.Sprintf("Leaving connection index: %v", err))
		}
		leaveCancel()
	}
	appLogger.Info("Shut down")
}
