package consensus

import (
	"errors"
	"sync"

	sqlite3 "github.com/gwenn/gosqlite"
	"lab.nexedi.com/kirr/go123/xerr"
)

var errClosedPool = errors.New("consensus: sqlite: getConn on closed pool")

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	ns  TEXT NOT NULL,
	key TEXT NOT NULL,
	val BLOB NOT NULL,
	PRIMARY KEY (ns, key)
)`

// SqliteKV is a KVStore backed by a local sqlite database file, in the
// same spirit as the storage backends register themselves by URL: it
// exposes the single schema this monitor needs rather than a generic
// object store.
type SqliteKV struct {
	pool *connPool
}

// OpenSqliteKV opens (creating if necessary) the database at path.
func OpenSqliteKV(path string) (*SqliteKV, error) {
	pool, err := newConnPool(path)
	if err != nil {
		return nil, err
	}
	conn, err := pool.getConn()
	if err != nil {
		pool.Close()
		return nil, err
	}
	err = conn.Exec(sqliteSchema)
	pool.putConn(conn)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &SqliteKV{pool: pool}, nil
}

func (kv *SqliteKV) Get(ns, key string) ([]byte, bool, error) {
	conn, err := kv.pool.getConn()
	if err != nil {
		return nil, false, err
	}
	defer kv.pool.putConn(conn)

	var val []byte
	found := false
	s, err := conn.Prepare("SELECT val FROM kv WHERE ns = ? AND key = ?", ns, key)
	if err != nil {
		return nil, false, err
	}
	defer s.Finalize()

	ok, err := s.Next()
	if err != nil {
		return nil, false, err
	}
	if ok {
		if err := s.Scan(&val); err != nil {
			return nil, false, err
		}
		found = true
	}
	return val, found, nil
}

func (kv *SqliteKV) Put(ns, key string, val []byte) error {
	conn, err := kv.pool.getConn()
	if err != nil {
		return err
	}
	defer kv.pool.putConn(conn)

	return conn.Exec("INSERT OR REPLACE INTO kv(ns, key, val) VALUES (?, ?, ?)", ns, key, val)
}

func (kv *SqliteKV) Delete(ns, key string) error {
	conn, err := kv.pool.getConn()
	if err != nil {
		return err
	}
	defer kv.pool.putConn(conn)

	return conn.Exec("DELETE FROM kv WHERE ns = ? AND key = ?", ns, key)
}

func (kv *SqliteKV) Keys(ns string) ([]string, error) {
	conn, err := kv.pool.getConn()
	if err != nil {
		return nil, err
	}
	defer kv.pool.putConn(conn)

	s, err := conn.Prepare("SELECT key FROM kv WHERE ns = ?", ns)
	if err != nil {
		return nil, err
	}
	defer s.Finalize()

	var keys []string
	for {
		ok, err := s.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		var k string
		if err := s.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func (kv *SqliteKV) Close() error {
	return kv.pool.Close()
}

// connPool is a pool of sqlite3.Conn, adapted from the teacher's
// storage/sqlite connection pool: sqlite connections are not safe for
// concurrent use, so independent callers (event-loop writes,
// admin-command reads) each check one out for the duration of a single
// statement and return it via putConn.
type connPool struct {
	factory func() (*sqlite3.Conn, error) // =nil if pool closed

	mu    sync.Mutex
	connv []*sqlite3.Conn // operated as stack
}

func newConnPool(path string) (*connPool, error) {
	p := &connPool{factory: func() (*sqlite3.Conn, error) { return sqlite3.Open(path) }}
	conn, err := p.factory()
	if err != nil {
		return nil, err
	}
	p.connv = append(p.connv, conn)
	return p, nil
}

func (p *connPool) getConn() (conn *sqlite3.Conn, _ error) {
	p.mu.Lock()
	factory := p.factory
	if factory == nil {
		p.mu.Unlock()
		return nil, errClosedPool
	}
	if l := len(p.connv); l > 0 {
		l--
		conn = p.connv[l]
		p.connv[l] = nil
		p.connv = p.connv[:l]
	}
	p.mu.Unlock()

	if conn != nil {
		return conn, nil
	}
	return factory()
}

func (p *connPool) putConn(conn *sqlite3.Conn) {
	p.mu.Lock()
	if p.factory != nil {
		p.connv = append(p.connv, conn)
	}
	p.mu.Unlock()
}

func (p *connPool) Close() error {
	p.mu.Lock()
	connv := p.connv
	p.connv = nil
	p.factory = nil
	p.mu.Unlock()

	var errv xerr.Errorv
	for _, conn := range connv {
		err := conn.Close()
		errv.Appendif(err)
	}
	return errv.Err()
}
