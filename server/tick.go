package server

import "time"

// DefaultTicksPerSecond 世界推进频率（60 TPS，一帧约 16.7ms）
const DefaultTicksPerSecond = 60

func (r *Room) tickInterval() time.Duration {
	tps := r.ticksPerSecond
	if tps <= 0 {
		tps = DefaultTicksPerSecond
	}
	return time.Second / time.Duration(tps)
}

// StartTicker 启动房间的 Tick 循环（单线程推进）
func (r *Room) StartTicker() {
	if r.tickerStarted {
		return
	}
	r.tickerStarted = true
	go func() {
		ticker := time.NewTicker(r.tickInterval())
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				// 核心循环：处理输入 → 写入历史并判定 → 上报结果
				start := time.Now()
				r.Tick()
				r.metrics.AddTick(time.Since(start).Nanoseconds())
			}
		}
	}()
}

// StopTicker 停止 Tick 循环
func (r *Room) StopTicker() {
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
}
