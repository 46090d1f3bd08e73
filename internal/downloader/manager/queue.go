package manager

func (dm *DownloadManager) enqueue(task *downloadTask) {
	dm.queueMutex.Lock()
	dm.queue = append(dm.queue, task)
	dm.queueMutex.Unlock()
}

// tryDequeue never blocks. ok is false when the queue is empty.
func (dm *DownloadManager) tryDequeue() (task *downloadTask, ok bool) {
	dm.queueMutex.Lock()
	defer dm.queueMutex.Unlock()

	if len(dm.queue) == 0 {
		return nil, false
	}
	task = dm.queue[0]
	dm.queue[0] = nil
	dm.queue = dm.queue[1:]
	return task, true
}

func (dm *DownloadManager) QueueLen() int {
	dm.queueMutex.Lock()
	defer dm.queueMutex.Unlock()
	return len(dm.queue)
}
