package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	cluster "github.com/donleqt/gocluster"
	"github.com/donleqt/gocluster/dataset"
)

func main() {
	points, err := dataset.ReadFile("./testdata/places.geojson")
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	c := cluster.NewCluster()
	c.Radius = 60
	c.MaxZoom = 3
	c.Extent = 256
	c.Logger = logger
	if err := c.ClusterPoints(points); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}

	// a view crossing the antimeridian, the Pacific
	view := orb.Bound{Min: orb.Point{71.36718750000001, -83.79204408779539}, Max: orb.Point{-71.01562500000001, 83.7539108491127}}
	result := c.GetClusters(view, 2)
	fmt.Printf("Getting points: %v\n", len(result))

	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
	fmt.Println(string(resultJSON))

	tileJSON, err := json.MarshalIndent(c.GetTile(0, 0, 0), "", "  ")
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
	fmt.Println(string(tileJSON))
}
