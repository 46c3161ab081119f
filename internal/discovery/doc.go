// Package discovery finds and advertises whoomp feed servers with mDNS.
//
// Feed servers register the "_whoomp-feed._tcp" service in "local." with a
// TXT record carrying their version and endpoint paths:
//
//	version=v0.3.0 ws=/ws api=/v1
//
// Clients browse with a Scanner:
//
//	feeds, err := discovery.NewScanner().Scan(ctx)
//	for _, f := range feeds {
//	    fmt.Println(f.Instance, f.Addr(), f.Version())
//	}
//
// Discovery needs multicast on the local segment and UDP port 5353 open.
package discovery
