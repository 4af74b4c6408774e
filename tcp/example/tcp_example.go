package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	logger "github.com/beka-birhanu/vinom-common/log"
	"github.com/beka-birhanu/vinom-labyrinth/config"
	"github.com/beka-birhanu/vinom-labyrinth/maze"
	pb "github.com/beka-birhanu/vinom-labyrinth/maze/pb_encoder"
	"github.com/beka-birhanu/vinom-labyrinth/service"
	"github.com/beka-birhanu/vinom-labyrinth/tcp"
)

func main() {
	serverLogger, err := logger.New("SERVER-SOCKET", config.ColorBlue, os.Stdout)
	if err != nil {
		os.Exit(1)
	}

	labyrinth, err := service.NewLabyrinth(&service.Config{
		Generator: maze.NewGenerator(),
		Encoder:   &pb.Protobuf{},
	})
	if err != nil {
		fmt.Printf("error while creating labyrinth service: %s", err)
		return
	}

	server, err := tcp.NewServerSocketManager(tcp.ServerConfig{
		ListenAddr: "localhost:8000",
		Handler:    labyrinth,
	},
		tcp.ServerWithLogger(serverLogger),
	)
	if err != nil {
		fmt.Printf("error while creating server: %s", err)
		return
	}
	go func() { _ = server.Serve() }()

	sizes := []struct{ width, height int }{{15, 7}, {21, 11}}
	var wg sync.WaitGroup
	for n, size := range sizes {
		clientLogger, err := logger.New(fmt.Sprintf("CLIENT-%d-SOCKET", n+1), config.ColorCyan, os.Stdout)
		if err != nil {
			os.Exit(1)
		}

		client, err := tcp.NewClientSocketManager(
			tcp.ClientConfig{ServerAddr: server.GetAddr(), DialTimeout: time.Second},
			tcp.ClientWithLogger(clientLogger),
		)
		if err != nil {
			fmt.Println("unable to connect to server")
			continue
		}
		client.Start()

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer client.Stop()

			seq, err := service.NewLabyrinthClient(client, &pb.Protobuf{}).Labyrinth(size.width, size.height)
			if err != nil {
				fmt.Printf("\nerror while fetching labyrinth: %s", err)
				return
			}
			m, err := seq.Maze(size.width, size.height)
			if err != nil {
				fmt.Printf("\nerror while rebuilding labyrinth: %s", err)
				return
			}
			fmt.Printf("\n%dx%d labyrinth, start %s, goal %s\n%s", size.width, size.height, seq.Start(), seq.Goal(), m)
		}()
	}
	wg.Wait()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit
	server.Stop()
}
