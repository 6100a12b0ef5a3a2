package main

import (
	"fmt"
	"log"
	"net"
	"os/exec"
	"runtime"
	"time"

	"github.com/zintix-labs/cbsample/demo"
	"github.com/zintix-labs/cbsample/server"
	"github.com/zintix-labs/cbsample/server/netsvr"
)

const addr = ":5810"

// 啟動示範計畫的服務並以瀏覽器開啟 Dev Panel
func main() {
	go func() {
		if err := waitForTCP(addr, 5*time.Second); err != nil {
			log.Fatal("dev server not ready: " + err.Error())
		}
		if err := openBrowser("http://localhost" + addr + "/dev"); err != nil {
			log.Println("open browser failed: " + err.Error())
		}
	}()
	sCfg, err := demo.NewServerConfig()
	if err != nil {
		log.Fatal("set server configs error: " + err.Error())
	}
	server.RunWithSvr(sCfg, netsvr.NewChiServer(addr))
}

func waitForTCP(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	target := "127.0.0.1" + addr
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", target, 200*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("timeout waiting for %s", addr)
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
