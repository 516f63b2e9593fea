package workers

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
)

// HostCPUs describes the host's processors as the kernel reports them.
// It is informational; Resolve never consults it.
type HostCPUs struct {
	Logical  int
	Physical int
}

func (h HostCPUs) String() string {
	return fmt.Sprintf("%d logical, %d physical", h.Logical, h.Physical)
}

// DescribeHost reads logical and physical CPU counts from the host.
func DescribeHost(ctx context.Context) (HostCPUs, error) {
	logical, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return HostCPUs{}, fmt.Errorf("counting logical cpus: %w", err)
	}
	physical, err := cpu.CountsWithContext(ctx, false)
	if err != nil {
		return HostCPUs{Logical: logical}, fmt.Errorf("counting physical cpus: %w", err)
	}
	return HostCPUs{Logical: logical, Physical: physical}, nil
}
