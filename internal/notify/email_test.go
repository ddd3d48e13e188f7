package notify

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"

	"commentwatch/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestEmailDelivery(t *testing.T) {
	testcontainers.SkipIfProviderIsNotHealthy(t)

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	ctx := context.Background()
	server, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		Started: true,
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "haravich/fake-smtp-server",
			ExposedPorts: []string{"1025/tcp", "1080/tcp"},
			WaitingFor:   wait.ForLog("smtp://0.0.0.0:1025"),
		},
	})
	require.NoError(t, err)
	defer func() {
		require.NoError(t, server.Terminate(ctx))
	}()

	host, err := server.Host(ctx)
	require.NoError(t, err)
	smtpPort, err := server.MappedPort(ctx, "1025/tcp")
	require.NoError(t, err)
	webPort, err := server.MappedPort(ctx, "1080/tcp")
	require.NoError(t, err)

	mem := telemetry.NewMemoryAPI()
	mailer := NewEmail(SmtpOptions{
		Host: host,
		Port: smtpPort.Int(),
		From: "bot@example.com",
		To:   []string{"ops@example.com"},
	}, mem)

	err = mailer.Notify(ctx, Message{
		Title: "BV1 | 1 keyword comments",
		Body:  "- **alice**: sponsored [link](https://www.bilibili.com/video/BV1/#reply1)",
	})
	require.NoError(t, err)
	require.Empty(t, mem.Reports(telemetry.REPORT_BROKEN, report_email_notify))

	res, err := resty.New().R().
		SetContext(ctx).
		Get(fmt.Sprintf("http://%s:%s/messages/1.plain", host, webPort.Port()))
	require.NoError(t, err)
	require.Equal(t, 200, res.StatusCode())
	require.Contains(t, res.String(), "- alice: sponsored link")
}
