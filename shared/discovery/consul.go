package discovery

import (
	"fmt"

	"github.com/hashicorp/consul/api"
	"github.com/rs/zerolog"
)

// ServiceRegistration describes a service instance to register with the
// Consul agent.
type ServiceRegistration struct {
	Name           string
	ID             string
	Address        string
	Port           int
	HealthCheckURL string
}

// RegisterService registers the service with the Consul agent and returns a
// deregister function for shutdown.
func RegisterService(logger *zerolog.Logger, consulAddr string, reg ServiceRegistration) (func(), error) {
	cfg := api.DefaultConfig()
	cfg.Address = consulAddr

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	serviceID := reg.ID
	if serviceID == "" {
		serviceID = fmt.Sprintf("%s-%s-%d", reg.Name, reg.Address, reg.Port)
	}

	registration := &api.AgentServiceRegistration{
		ID:      serviceID,
		Name:    reg.Name,
		Address: reg.Address,
		Port:    reg.Port,
		Check: &api.AgentServiceCheck{
			HTTP:                           reg.HealthCheckURL,
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	if err := client.Agent().ServiceRegister(registration); err != nil {
		return nil, fmt.Errorf("failed to register service with consul: %w", err)
	}

	logger.Info().
		Str("service_id", serviceID).
		Str("consul_addr", consulAddr).
		Msg("registered service with consul")

	deregister := func() {
		if err := client.Agent().ServiceDeregister(serviceID); err != nil {
			logger.Error().Err(err).Msg("failed to deregister service from consul")
		}
	}

	return deregister, nil
}
