package dataplane

// Start launches the packet worker. It is a no-op if the worker is running.
func (dp *DataPlane) Start() {
	dp.lifecycle.Lock()
	defer dp.lifecycle.Unlock()

	if dp.running.Load() {
		return
	}

	dp.running.Store(true)
	dp.done = make(chan struct{})
	dp.metrics.SetWorkerRunning(true)
	go dp.worker(dp.done)

	dp.logger.Info("Data plane started", "interval", dp.interval)
}

// Stop clears the running flag and waits for the worker to return. The
// worker notices at its next iteration boundary, so Stop can block for up
// to one interval. It is a no-op if the worker is not running.
func (dp *DataPlane) Stop() {
	dp.lifecycle.Lock()
	defer dp.lifecycle.Unlock()

	if !dp.running.Load() {
		return
	}

	dp.running.Store(false)
	<-dp.done
	dp.done = nil
	dp.metrics.SetWorkerRunning(false)

	dp.logger.Info("Data plane stopped")
}

// Running reports whether the worker is running.
func (dp *DataPlane) Running() bool {
	return dp.running.Load()
}

func (dp *DataPlane) worker(done chan<- struct{}) {
	defer close(done)

	for iteration := 0; ; iteration++ {
		dp.clock.Sleep(dp.interval)
		if !dp.running.Load() {
			return
		}

		total := dp.packets.Add(uint64(dp.packetsPerTick))
		dp.metrics.RecordWorkerTick(dp.packetsPerTick)

		if iteration%dp.progressEvery == 0 {
			dp.logger.Info("Processing packets", "total", total)
		}
	}
}
