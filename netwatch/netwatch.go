package netwatch

import (
	"log"
	"strings"
	"time"

	"github.com/go-ping/ping"

	"github.com/pooldex/swapd/config"
	"github.com/pooldex/swapd/notify"
	"github.com/pooldex/swapd/utils"
)

// Watcher pings the ledger endpoint and alerts when latency stays high.
type Watcher struct {
	peer    string
	rtt     []int64
	avg     []int64
	pinger  *ping.Pinger
	logger  *log.Logger
	webhook *notify.Webhook
}

func NewWatcher(endpoint string, webhook *notify.Webhook) *Watcher {
	address := endpoint
	if index := strings.Index(address, "://"); index >= 0 {
		address = address[index+3:]
	}
	if index := strings.LastIndex(address, ":"); index >= 0 {
		address = address[:index]
	}
	logger := utils.NewLog(config.LogPath, config.NetworkLog)
	w := &Watcher{
		peer:    address,
		rtt:     make([]int64, 0),
		logger:  logger,
		webhook: webhook,
	}
	return w
}

func (w *Watcher) ping() {
	pinger, err := ping.NewPinger(w.peer)
	if err != nil {
		w.logger.Printf("pinger: %v", err)
		return
	}
	w.pinger = pinger
	notifyTime := time.Now().Unix()
	pinger.OnRecv = func(pkt *ping.Packet) {
		w.rtt = append(w.rtt, pkt.Rtt.Nanoseconds())
		sum := int64(0)
		for _, x := range w.rtt {
			sum += x
		}
		avg := sum / int64(len(w.rtt))
		w.avg = append(w.avg, avg)
		if len(w.rtt) > 300 {
			w.rtt = w.rtt[len(w.rtt)-300:]
		}
		if len(w.avg) > 300 {
			w.avg = w.avg[len(w.avg)-300:]
		}
		isLow := false
		for _, avgx := range w.avg {
			if avgx < 20*1000*1000 {
				isLow = true
			}
		}
		now := time.Now().Unix()
		w.logger.Printf("ping rtt: %d", avg/1000000)
		if !isLow {
			w.logger.Printf("ledger endpoint latency is too large")
			if now-notifyTime > 5*60 {
				w.alert(w.avg[len(w.avg)-1])
				notifyTime = now
			}
		}
	}
	pinger.Run()
}

func (w *Watcher) alert(rtt int64) {
	if w.webhook == nil {
		return
	}
	w.webhook.NotifyText("ledger endpoint %s rtt: %dms;\ntime: %s;",
		w.peer, rtt/1000000, time.Now().Format("2006-01-02 15:04:05"))
}

func (w *Watcher) Start() {
	go w.ping()
}

func (w *Watcher) Stop() {
	if w.pinger != nil {
		w.pinger.Stop()
	}
}
