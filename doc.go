// Package rsdb is a client for the rsdb key-value server.
//
// A Session owns one TCP connection and the database selected on it:
//
//	s, err := rsdb.Dial(ctx, "rsdb://@localhost/gdb")
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	if _, err := s.Set(ctx, []byte("key1"), []byte("value1")); err != nil {
//	    return err
//	}
//	value, err := s.GetValue(ctx, []byte("key1"))
//
// Every command returns the decoded wire.Response. A server ERROR reply is
// returned as a *wire.OpError and the session stays usable. I/O and framing
// failures close the session; see wire.ShouldCloseConnection.
//
// The wire package implements the frame codec on its own and can be used to
// write servers or tools.
package rsdb
