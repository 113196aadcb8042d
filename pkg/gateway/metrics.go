package gateway

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"k8s.io/klog/v2"
)

const gib = 1 << 30

func (m *Manager) getGatewayCpu() ([]float64, error) {
	percents, err := cpu.Percent(0, true)
	if err != nil {
		klog.V(2).InfoS("Failed to read cpu usage", "err", err)
		return nil, err
	}
	for i := range percents {
		percents[i] = round(percents[i])
	}
	return percents, nil
}

func (m *Manager) getGatewayMem() (*MemUsageInfo, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		klog.V(2).InfoS("Failed to read memory usage", "err", err)
		return nil, err
	}
	return &MemUsageInfo{
		Total:       fmt.Sprintf("%.2fG", float64(vm.Total)/gib),
		Used:        fmt.Sprintf("%.2fG", float64(vm.Used)/gib),
		UsedPercent: fmt.Sprintf("%.2f%%", vm.UsedPercent),
	}, nil
}

func (m *Manager) getGatewayDisk() ([]*DiskUsageInfo, error) {
	partitions, err := disk.Partitions(false)
	if err != nil {
		klog.V(2).InfoS("Failed to read disk partitions", "err", err)
		return nil, err
	}
	infos := make([]*DiskUsageInfo, 0, len(partitions))
	for _, p := range partitions {
		usage, err := disk.Usage(p.Mountpoint)
		if err != nil {
			klog.V(3).InfoS("Failed to read disk usage", "mountpoint", p.Mountpoint, "err", err)
			continue
		}
		infos = append(infos, &DiskUsageInfo{
			Total:       fmt.Sprintf("%.2fG", float64(usage.Total)/gib),
			Used:        fmt.Sprintf("%.2fG", float64(usage.Used)/gib),
			UsedPercent: fmt.Sprintf("%.2f%%", usage.UsedPercent),
		})
	}
	return infos, nil
}

func round(v float64) float64 {
	return float64(int(v*100)) / 100
}
