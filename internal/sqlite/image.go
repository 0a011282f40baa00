// This file moves the live database to and from its binary image through
// the driver's serialize/deserialize support.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// serializer and deserializer are implemented by the modernc.org/sqlite
// driver connection.
type serializer interface {
	Serialize() ([]byte, error)
}

type deserializer interface {
	Deserialize(buf []byte) error
}

// serializeDB returns the image of the main database.
func serializeDB(ctx context.Context, db *sql.DB) ([]byte, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	var image []byte
	err = conn.Raw(func(driverConn any) error {
		s, ok := driverConn.(serializer)
		if !ok {
			return types.ErrUnsupportedDriver
		}
		var err error
		image, err = s.Serialize()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("serializing database: %w", err)
	}
	return image, nil
}

// deserializeDB replaces the main database with the given image.
func deserializeDB(ctx context.Context, db *sql.DB, image []byte) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	err = conn.Raw(func(driverConn any) error {
		d, ok := driverConn.(deserializer)
		if !ok {
			return types.ErrUnsupportedDriver
		}
		return d.Deserialize(image)
	})
	if err != nil {
		return fmt.Errorf("%w: deserializing: %v", types.ErrInvalidImage, err)
	}
	return nil
}
