package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceType is one entry of the studio's fixed service catalog. The set is
// closed: every reservation references exactly one of these and derives its
// duration from it.
type ServiceType string

const (
	ServiceSmall   ServiceType = "small"
	ServiceMedium  ServiceType = "medium"
	ServiceLarge   ServiceType = "large"
	ServiceSession ServiceType = "session"
)

var ErrUnknownServiceType = errors.New("unknown service type")

type serviceSpec struct {
	label string
	hours int
}

var serviceCatalog = map[ServiceType]serviceSpec{
	ServiceSmall:   {label: "Small tattoo", hours: 2},
	ServiceMedium:  {label: "Medium tattoo", hours: 4},
	ServiceLarge:   {label: "Large tattoo", hours: 6},
	ServiceSession: {label: "Full session", hours: 8},
}

// serviceTypeOrder fixes the listing order; maps iterate randomly.
var serviceTypeOrder = []ServiceType{ServiceSmall, ServiceMedium, ServiceLarge, ServiceSession}

// ResolveServiceType matches name against the catalog, ignoring case and
// surrounding whitespace.
func ResolveServiceType(name string) (ServiceType, error) {
	t := ServiceType(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := serviceCatalog[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownServiceType, name)
	}
	return t, nil
}

func (t ServiceType) DurationHours() int {
	return serviceCatalog[t].hours
}

func (t ServiceType) Duration() time.Duration {
	return time.Duration(serviceCatalog[t].hours) * time.Hour
}

func (t ServiceType) Label() string {
	return serviceCatalog[t].label
}

func (t ServiceType) Valid() bool {
	_, ok := serviceCatalog[t]
	return ok
}

// ServiceTypes returns the catalog in a stable order.
func ServiceTypes() []ServiceType {
	out := make([]ServiceType, len(serviceTypeOrder))
	copy(out, serviceTypeOrder)
	return out
}
