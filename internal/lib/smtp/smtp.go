// Package smtp отправляет письма через SMTP-сервер.
package smtp

import "io"

// Client подмножество методов *smtp.Client, нужное для отправки письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface открывает соединения с почтовым сервером.
type TransportInterface interface {
	Connect() (Client, error)
	Sender() string
}
