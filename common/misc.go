package common

import (
	"hash/fnv"
	"os"
	"sync"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/sony/sonyflake"
)

var idEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

var (
	defaultIDWorker     *sonyflake.Sonyflake
	defaultIDWorkerOnce sync.Once
)

// DefaultIDWorker is the worker shared by everything in this process. Two workers with the same
// machine id hand out the same ids, so a process never builds a second one implicitly.
func DefaultIDWorker() *sonyflake.Sonyflake {
	defaultIDWorkerOnce.Do(func() {
		defaultIDWorker = NewIDWorker(0)
	})
	return defaultIDWorker
}

// NewIDWorker builds a sonyflake worker. Machine id 0 derives the id from the private IPv4
// address, hosts without one fall back to a hash of the hostname. Processes sharing a host
// must be given distinct machine ids.
func NewIDWorker(machineID uint16) *sonyflake.Sonyflake {
	if machineID != 0 {
		return mustIDWorker(sonyflake.Settings{StartTime: idEpoch, MachineID: func() (uint16, error) {
			return machineID, nil
		}})
	}
	worker, err := sonyflake.New(sonyflake.Settings{StartTime: idEpoch})
	if err == nil {
		return worker
	}
	return mustIDWorker(sonyflake.Settings{StartTime: idEpoch, MachineID: hostnameMachineID})
}

func mustIDWorker(settings sonyflake.Settings) *sonyflake.Sonyflake {
	worker, err := sonyflake.New(settings)
	if err != nil {
		panic(err)
	}
	return worker
}

func hostnameMachineID() (uint16, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return 0, err
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(hostname))
	return uint16(h.Sum32()), nil
}

func NextId(idWorker *sonyflake.Sonyflake) types.ID {
	id, err := idWorker.NextID()
	if err != nil {
		panic(err)
	}
	return types.ID(id)
}
